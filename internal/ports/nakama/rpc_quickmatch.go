package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// CreateMatchRequest is the optional RPC payload.
type CreateMatchRequest struct {
	// Private skips the search for an open match.
	Private bool `json:"private"`
}

// CreateMatchResponse is the payload returned to clients.
type CreateMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	return initializer.RegisterRpc(RpcCreateMatch, rpcCreateMatch)
}

func rpcCreateMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req CreateMatchRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
		}
	}

	if !req.Private {
		query := "+label.open:T +label.game:" + GameLabel
		minSize := 1
		maxSize := maxPlayers() - 1

		matches, err := nk.MatchList(ctx, 10, true, "", &minSize, &maxSize, query)
		if err != nil {
			logger.Error("MatchList error: %v", err)
			return "", err
		}
		if len(matches) > 0 {
			return marshalResponse(CreateMatchResponse{MatchID: matches[0].MatchId, IsNew: false})
		}
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameRelay, map[string]interface{}{})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}
	return marshalResponse(CreateMatchResponse{MatchID: matchID, IsNew: true})
}

func marshalResponse(resp CreateMatchResponse) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("internal error", 13) // INTERNAL
	}
	return string(b), nil
}
