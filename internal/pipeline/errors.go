// internal/pipeline/errors.go
package pipeline

import (
	"supplychain-copilot/internal/audit"
	commonerrors "supplychain-copilot/internal/common/errors"
	"supplychain-copilot/internal/llm"
	"supplychain-copilot/internal/retrieval"
	"supplychain-copilot/internal/store"
	analyzescenario "supplychain-copilot/internal/workers/copilot/analyze-scenario"
	answerkpi "supplychain-copilot/internal/workers/copilot/answer-kpi"
	answerpolicy "supplychain-copilot/internal/workers/copilot/answer-policy"
	routequestion "supplychain-copilot/internal/workers/copilot/route-question"
)

// NewErrorClassifier maps every sentinel a Run can surface to its code, for
// transports translating errors into responses.
func NewErrorClassifier() *commonerrors.Classifier {
	return commonerrors.NewClassifier().
		Register(routequestion.ErrClassificationFailed, commonerrors.NewClassificationFailedError).
		Register(answerpolicy.ErrRetrievalFailed, commonerrors.NewRetrievalFailedError).
		Register(answerpolicy.ErrGenerationFailed, commonerrors.NewLLMGenerationFailedError).
		Register(answerkpi.ErrGenerationFailed, commonerrors.NewLLMGenerationFailedError).
		Register(analyzescenario.ErrGenerationFailed, commonerrors.NewLLMGenerationFailedError).
		Register(retrieval.ErrRetrievalFailed, commonerrors.NewRetrievalFailedError).
		Register(llm.ErrGenerationFailed, commonerrors.NewLLMGenerationFailedError).
		Register(store.ErrQueryRejected, func(err error) *commonerrors.StandardError {
			return commonerrors.NewQueryRejectedError(err.Error())
		}).
		Register(store.ErrQueryExecutionFailed, commonerrors.NewQueryExecutionFailedError).
		Register(audit.ErrAuditWriteFailed, func(err error) *commonerrors.StandardError {
			return commonerrors.NewAuditWriteFailedError("audit", err)
		})
}
