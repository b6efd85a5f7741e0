package repricer

import "context"

type ctxKey string

const JobIDKey ctxKey = "job_id"

func JobIDFromContext(ctx context.Context) string {
	if v := ctx.Value(JobIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
