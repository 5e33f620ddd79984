package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/soloq/internal/domain"
	"github.com/iamasit07/soloq/internal/transport/http/middleware"
	"github.com/iamasit07/soloq/internal/transport/http/response"
)

const maxBodyBytes = 16 << 10

type Settler interface {
	Settle(ctx context.Context, id domain.Identity, outcome domain.SessionOutcome) (*domain.SettlementResult, error)
}

type GamesHandler struct {
	Settlement Settler
}

func NewGamesHandler(s Settler) *GamesHandler {
	return &GamesHandler{Settlement: s}
}

type settleResponse struct {
	OK            bool   `json:"ok"`
	OldRating     int    `json:"old_rating"`
	NewRating     int    `json:"new_rating"`
	Delta         int    `json:"delta"`
	PlayerID      string `json:"player_id"`
	FoundBy       string `json:"found_by"`
	GameSessionID string `json:"game_session_id"`
}

// Settle handles POST /api/games.
func (h *GamesHandler) Settle(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, domain.NewIdentityError(domain.CodeMissingIDToken, nil))
		return
	}

	outcome, err := decodeOutcome(c.Request.Body)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.Settlement.Settle(c.Request.Context(), id, outcome)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, settleResponse{
		OK:            true,
		OldRating:     res.OldRating,
		NewRating:     res.NewRating,
		Delta:         res.Delta,
		PlayerID:      res.PlayerID,
		FoundBy:       string(res.FoundBy),
		GameSessionID: res.GameSessionID,
	})
}

// decodeOutcome reads the body loosely and checks it in a fixed order:
// specialty, integer scores, score bounds, duration, opponent rating.
func decodeOutcome(body io.Reader) (domain.SessionOutcome, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return domain.SessionOutcome{}, domain.NewValidationError(domain.CodeInvalidJSONBody, "unreadable body")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return domain.SessionOutcome{}, domain.NewValidationError(domain.CodeInvalidJSONBody, "body must be a JSON object")
	}

	specialty, _ := fields["specialty"].(string)
	outcome := domain.SessionOutcome{Specialty: strings.TrimSpace(specialty)}
	if outcome.Specialty == "" {
		return outcome, domain.NewValidationError(domain.CodeMissingSpecialty, "specialty is required")
	}

	correct, okC := integer(fields["correct"])
	total, okT := integer(fields["total"])
	if !okC || !okT {
		return outcome, domain.NewValidationError(domain.CodeNonIntegerScore, "correct and total must be integers")
	}
	outcome.Correct, outcome.Total = int(correct), int(total)
	if err := outcome.Validate(); err != nil {
		return outcome, err
	}

	duration, ok := integer(fields["duration_ms"])
	if !ok || duration < 0 {
		return outcome, domain.NewValidationError(domain.CodeDurationInvalid, "duration_ms must be a non-negative integer")
	}
	outcome.DurationMS = duration

	opp, present := fields["opponent_rating"]
	if !present || opp == nil {
		opp, present = fields["opponent_elo"]
	}
	if present && opp != nil {
		v, ok := integer(opp)
		if !ok {
			return outcome, domain.NewValidationError(domain.CodeOpponentRatingInvalid, "opponent_rating must be an integer")
		}
		if !domain.ValidOpponentRating(v) {
			return outcome, domain.NewValidationError(domain.CodeOpponentRatingInvalid, "opponent_rating out of range")
		}
		outcome.OpponentRating = domain.Int(int(v))
	}

	return outcome, nil
}

// maxJSONInteger is the largest integer a JSON number carries exactly.
const maxJSONInteger = 1 << 53

// integer accepts JSON numbers with no fractional part, so 5.0 is 5.
// Both spellings share the same bound.
func integer(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
			return 0, false
		}
		if f > maxJSONInteger || f < -maxJSONInteger {
			return 0, false
		}
		i = int64(f)
	}
	if i > maxJSONInteger || i < -maxJSONInteger {
		return 0, false
	}
	return i, true
}
