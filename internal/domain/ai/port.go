package ai

import "context"

type Client interface {
	Summarize(ctx context.Context, reportURL, reportText string) (string, error)
}
