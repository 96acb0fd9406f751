package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Response.Text)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: engine returned empty message", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply, Events: in.Response.Events}, nil
}
