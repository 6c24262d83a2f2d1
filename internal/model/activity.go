package model

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// ActivityRecord links a user to a sustainable action performed at a point
// in time.
//
// Action and User are populated only on reads that join them: listings by
// user embed the action, single-record reads embed both.
type ActivityRecord struct {
	ID         int64              `json:"id"`
	UserID     int64              `json:"usuario_id"`
	ActionID   int64              `json:"acao_id"`
	OccurredAt time.Time          `json:"data_hora"`
	Note       *string            `json:"observacao"`
	Action     *SustainableAction `json:"acao,omitempty"`
	User       *User              `json:"usuario,omitempty"`
}

// IDValue is an id as the client sent it: 7, "7" or even "abc". Decoding
// never fails on the content; the service does the numeric validation so it
// can answer with its own message. Integral JSON numbers written as 1.0 or
// 1e0 are normalized to "1".
type IDValue string

func (v *IDValue) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = IDValue(s)
	default:
		*v = IDValue(integralNumber(json.Number(data)))
	}
	return nil
}

// integralNumber rewrites an integral number in base-10 integer form and
// returns anything else unchanged.
func integralNumber(n json.Number) string {
	if _, err := n.Int64(); err == nil {
		return n.String()
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return n.String()
	}
	return strconv.FormatInt(int64(f), 10)
}

// NewActivity is the payload for logging an activity.
type NewActivity struct {
	UserID   IDValue `json:"usuario_id"`
	ActionID IDValue `json:"acao_id"`
	Note     *string `json:"observacao"`
}

type ActivityChanges struct {
	ActionID   Patch[IDValue]   `json:"acao_id"`
	Note       Patch[string]    `json:"observacao"`
	OccurredAt Patch[time.Time] `json:"data_hora"`
}

func (c ActivityChanges) Empty() bool {
	return !c.ActionID.Set && !c.Note.Set && !c.OccurredAt.Set
}
