package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

func TestTypedGetters(t *testing.T) {
	cfg := map[string]string{
		"PORT":                 "8080",
		"BAD_INT":              "eight",
		"WORKER":               "true",
		"READ_TIMEOUT_SECONDS": "15",
		"ACCEPTED_ORIGINS":     "http://localhost:3000, https://hack.example.com,,",
	}
	if got := GetInt(cfg, "PORT", 1); got != 8080 {
		t.Errorf("GetInt = %d", got)
	}
	if got := GetInt(cfg, "BAD_INT", 7); got != 7 {
		t.Errorf("GetInt fallback = %d", got)
	}
	if !GetBool(cfg, "WORKER", false) || GetBool(cfg, "MISSING", false) {
		t.Error("GetBool")
	}
	if got := GetSeconds(cfg, "READ_TIMEOUT_SECONDS", time.Second); got != 15*time.Second {
		t.Errorf("GetSeconds = %v", got)
	}
	if got := GetSeconds(cfg, "MISSING", 3*time.Second); got != 3*time.Second {
		t.Errorf("GetSeconds fallback = %v", got)
	}
	if got := GetList(cfg, "ACCEPTED_ORIGINS"); len(got) != 2 || got[1] != "https://hack.example.com" {
		t.Errorf("GetList = %q", got)
	}
}

type fakeSSM struct {
	pages [][]types.Parameter
	calls int
	err   error
}

func (f *fakeSSM) GetParametersByPath(ctx context.Context, in *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &ssm.GetParametersByPathOutput{Parameters: f.pages[f.calls]}
	f.calls++
	if f.calls < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func param(name, value string) types.Parameter {
	return types.Parameter{Name: aws.String(name), Value: aws.String(value)}
}

func TestLoadSSMFillsMissingKeys(t *testing.T) {
	client := &fakeSSM{pages: [][]types.Parameter{
		{param("/hackathon/prod/database/url", "postgres://primary"), param("/hackathon/prod/JWT_SECRET", "from-ssm")},
		{param("/hackathon/prod/twilio/auth-token", "tok")},
	}}
	cfg := map[string]string{"JWT_SECRET": "from-env"}

	n, err := LoadSSM(context.Background(), client, "/hackathon/prod/", cfg)
	if err != nil {
		t.Fatalf("LoadSSM: %v", err)
	}
	if n != 2 || client.calls != 2 {
		t.Errorf("filled %d keys over %d pages", n, client.calls)
	}
	if cfg["DATABASE_URL"] != "postgres://primary" || cfg["TWILIO_AUTH_TOKEN"] != "tok" {
		t.Errorf("cfg = %v", cfg)
	}
	if cfg["JWT_SECRET"] != "from-env" {
		t.Errorf("environment value replaced: %q", cfg["JWT_SECRET"])
	}
}

func TestLoadSSMReportsErrors(t *testing.T) {
	_, err := LoadSSM(context.Background(), &fakeSSM{err: errors.New("AccessDenied")}, "/x", map[string]string{})
	if err == nil {
		t.Fatal("expected error")
	}
}
