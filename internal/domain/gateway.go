package domain

import "context"

// Gateway is the language-understanding collaborator boundary. Complete
// classifies free user text against the published intent schemas, grounded
// on the session history and the user's profile snapshot; it returns either
// a direct reply or exactly one structured call. Classify answers the binary
// end-of-conversation question for a follow-up message; implementations must
// map any unparseable reply to ContinuationContinue. Refine runs a plain
// completion over a single query with no tools attached.
type Gateway interface {
	Complete(ctx context.Context, userID, text string, history []Exchange) (*Intent, error)
	Classify(ctx context.Context, text string) (Continuation, error)
	Refine(ctx context.Context, query string) (string, error)
}
