package api

import (
	"context"

	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/workflow"
)

type keyType string

const actorKey keyType = "actor"

// ctxWithActor adds the authenticated caller to the context
func ctxWithActor(ctx context.Context, actor workflow.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ctxGetActor retrieves the authenticated caller from the context
func ctxGetActor(ctx context.Context) (workflow.Actor, error) {
	actor, ok := ctx.Value(actorKey).(workflow.Actor)
	if !ok {
		return workflow.Actor{}, errs.NewMissingTokenError()
	}
	return actor, nil
}
