package tool

import (
	"context"
	"errors"
	"strings"

	"github.com/smallnest/ragagent/retrieval"
)

// RetrieveContextName is the name under which the retrieval tool is exposed.
const RetrieveContextName = "retrieve_context"

// RetrieveArgs are the arguments of the retrieve_context tool.
type RetrieveArgs struct {
	Query string `json:"query" jsonschema:"description=Search query describing the information needed to answer the user"`
}

// Validate rejects blank queries.
func (a *RetrieveArgs) Validate() error {
	if strings.TrimSpace(a.Query) == "" {
		return errors.New("query is empty")
	}
	return nil
}

// RetrieveContext returns the retrieve_context tool backed by r, fetching k
// passages per call. An empty result yields retrieval.NoContext. Backend
// failures are returned as *retrieval.Error.
func RetrieveContext(r retrieval.Retriever, k int) (*Typed[RetrieveArgs], error) {
	return NewTyped(RetrieveContextName,
		"Search the knowledge base for passages relevant to the user's question. "+
			"Use it whenever the answer depends on documentation or stored knowledge.",
		func(ctx context.Context, args RetrieveArgs) (string, error) {
			passages, err := r.Retrieve(ctx, args.Query, k)
			if err != nil {
				if !retrieval.IsRetrievalError(err) {
					err = &retrieval.Error{Query: args.Query, Err: err}
				}
				return "", err
			}
			if len(passages) == 0 {
				return retrieval.NoContext, nil
			}
			return retrieval.Format(passages), nil
		})
}
