package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog/log"
)

// LoadSSM overlays every parameter under path onto cfg. A parameter named
// <path>/database/url fills DATABASE_URL. Keys already set in the
// environment are kept. It returns how many keys were filled.
func LoadSSM(ctx context.Context, client ssm.GetParametersByPathAPIClient, path string, cfg map[string]string) (int, error) {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	var params []types.Parameter
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("read ssm parameters under %s: %w", path, err)
		}
		params = append(params, page.Parameters...)
	}
	return mergeParameters(cfg, path, params), nil
}

func mergeParameters(cfg map[string]string, path string, params []types.Parameter) int {
	filled := 0
	for _, p := range params {
		if p.Name == nil || p.Value == nil {
			continue
		}
		key := parameterKey(path, *p.Name)
		if key == "" {
			continue
		}
		if existing, ok := cfg[key]; ok && existing != "" {
			log.Debug().Str("key", key).Msg("environment overrides ssm parameter")
			continue
		}
		cfg[key] = *p.Value
		filled++
	}
	return filled
}

func parameterKey(path, name string) string {
	rel := strings.Trim(strings.TrimPrefix(name, strings.TrimRight(path, "/")), "/")
	rel = strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(rel)
	return strings.ToUpper(rel)
}
