package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/events"
	"github.com/sakif/plantando/internal/model"
)

type activityFixture struct {
	svc        *ActivityService
	activities *fakeActivityRepo
	users      *fakeUserRepo
	actions    *fakeActionRepo
	pub        *recordingPublisher
}

// newActivityFixture seeds user 1 (Ana) and action 1 (Usar bicicleta, 20 pts).
func newActivityFixture(t *testing.T) *activityFixture {
	t.Helper()

	f := &activityFixture{
		activities: newFakeActivityRepo(),
		users:      newFakeUserRepo(),
		actions:    newFakeActionRepo(),
		pub:        &recordingPublisher{},
	}
	require.NoError(t, f.users.Create(context.Background(), &model.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "x"}))
	require.NoError(t, f.actions.Create(context.Background(), &model.SustainableAction{Name: "Usar bicicleta", Points: 20}))
	f.svc = NewActivityService(f.activities, f.users, f.actions, f.pub, testLogger())
	return f
}

func (f *activityFixture) record(t *testing.T) *model.ActivityRecord {
	t.Helper()
	rec, err := f.svc.Create(context.Background(), model.NewActivity{UserID: "1", ActionID: "1"})
	require.NoError(t, err)
	return rec
}

func TestActivityCreate(t *testing.T) {
	f := newActivityFixture(t)

	rec, err := f.svc.Create(context.Background(), model.NewActivity{
		UserID: "1", ActionID: "1", Note: strPtr("fui de bike"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.False(t, rec.OccurredAt.IsZero())

	published := f.pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeActivityRecorded, published[0].Type)
	assert.Equal(t, "1", published[0].Key)

	payload, ok := published[0].Payload.(events.ActivityRecorded)
	require.True(t, ok, "payload type %T", published[0].Payload)
	assert.Equal(t, 20, payload.Points)
}

func TestActivityCreate_FromJSON(t *testing.T) {
	f := newActivityFixture(t)

	for _, body := range []string{
		`{"usuario_id": 1, "acao_id": "1"}`,
		`{"usuario_id": 1, "acao_id": 1.0}`,
		`{"usuario_id": 1e0, "acao_id": 1}`,
	} {
		var in model.NewActivity
		require.NoError(t, json.Unmarshal([]byte(body), &in), body)

		record, err := f.svc.Create(context.Background(), in)
		require.NoError(t, err, body)
		assert.Equal(t, int64(1), record.ActionID, body)
	}
}

func TestActivityCreate_IDChecks(t *testing.T) {
	f := newActivityFixture(t)

	tests := []struct {
		name string
		in   model.NewActivity
		want string
	}{
		{"missing user", model.NewActivity{ActionID: "1"}, msgActivityIDsRequired},
		{"missing action", model.NewActivity{UserID: "1"}, msgActivityIDsRequired},
		{"zero id", model.NewActivity{UserID: "0", ActionID: "1"}, msgActivityIDsRequired},
		{"non-numeric user", model.NewActivity{UserID: "abc", ActionID: "1"}, msgActivityIDsNotNumeric},
		{"non-numeric wins over missing", model.NewActivity{ActionID: "x"}, msgActivityIDsNotNumeric},
		{"fraction", model.NewActivity{UserID: "1.5", ActionID: "1"}, msgActivityIDsNotNumeric},
		{"unknown user", model.NewActivity{UserID: "9", ActionID: "1"}, msgActivityUserMissing},
		{"unknown action", model.NewActivity{UserID: "1", ActionID: "9"}, msgActivityActionMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.in)
			assert.Equal(t, tt.want, appErr(t, err).Message)
		})
	}
	assert.Empty(t, f.activities.records)
	assert.Empty(t, f.pub.published())
}

func TestActivityCreate_StorageFailure(t *testing.T) {
	f := newActivityFixture(t)
	f.activities.err = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), model.NewActivity{UserID: "1", ActionID: "1"})
	ae := appErr(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInternal))
	assert.Equal(t, msgCreateActivityFailed, ae.Message)
	assert.Empty(t, f.pub.published())
}

func TestActivityListByUser(t *testing.T) {
	f := newActivityFixture(t)
	first := f.record(t)
	f.activities.records[first.ID].OccurredAt = time.Now().Add(-time.Hour)
	second := f.record(t)

	records, err := f.svc.ListByUser(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID, "newest first")

	_, err = f.svc.ListByUser(context.Background(), "um")
	assert.Equal(t, msgInvalidActivityUserID, appErr(t, err).Message)

	_, err = f.svc.ListByUser(context.Background(), "5")
	assert.Equal(t, msgListingUserMissing, appErr(t, err).Message)
}

func TestActivityGet_StripsUserDigest(t *testing.T) {
	f := newActivityFixture(t)
	rec := f.record(t)
	f.activities.records[rec.ID].User = &model.User{ID: 1, Name: "Ana", PasswordHash: "$2a$digest"}

	got, err := f.svc.Get(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Empty(t, got.User.PasswordHash)

	_, err = f.svc.Get(context.Background(), "2")
	assert.Equal(t, msgActivityNotFound, appErr(t, err).Message)

	_, err = f.svc.Get(context.Background(), "-")
	assert.Equal(t, msgInvalidActivityID, appErr(t, err).Message)
}

func TestActivityUpdate(t *testing.T) {
	f := newActivityFixture(t)
	f.record(t)
	require.NoError(t, f.actions.Create(context.Background(), &model.SustainableAction{Name: "Levar ecobag", Points: 10}))

	when := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	updated, err := f.svc.Update(context.Background(), "1", model.ActivityChanges{
		ActionID:   model.Some(model.IDValue("2")),
		Note:       model.Some("trocada"),
		OccurredAt: model.Some(when),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.ActionID)
	require.NotNil(t, updated.Note)
	assert.Equal(t, "trocada", *updated.Note)
	assert.True(t, updated.OccurredAt.Equal(when))

	cleared, err := f.svc.Update(context.Background(), "1", model.ActivityChanges{Note: model.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Note)
}

func TestActivityUpdate_Errors(t *testing.T) {
	f := newActivityFixture(t)
	f.record(t)

	tests := []struct {
		name    string
		id      string
		changes model.ActivityChanges
		want    string
	}{
		{"bad id", "x", model.ActivityChanges{Note: model.Some("n")}, msgInvalidActivityID},
		{"missing record", "9", model.ActivityChanges{Note: model.Some("n")}, msgActivityNotFoundUpd},
		{"empty payload", "1", model.ActivityChanges{}, msgNoChanges},
		{"bad action id", "1", model.ActivityChanges{ActionID: model.Some(model.IDValue("dois"))}, msgInvalidActionID},
		{"null action id", "1", model.ActivityChanges{ActionID: model.Null[model.IDValue]()}, msgInvalidActionID},
		{"unknown action", "1", model.ActivityChanges{ActionID: model.Some(model.IDValue("9"))}, msgActivityActionMissing},
		{"null timestamp", "1", model.ActivityChanges{OccurredAt: model.Null[time.Time]()}, msgNullOccurredAt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(context.Background(), tt.id, tt.changes)
			assert.Equal(t, tt.want, appErr(t, err).Message)
		})
	}
}

func TestActivityDelete(t *testing.T) {
	f := newActivityFixture(t)
	f.record(t)

	require.NoError(t, f.svc.Delete(context.Background(), "1"))
	assert.Empty(t, f.activities.records)

	err := f.svc.Delete(context.Background(), "1")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, msgActivityNotFound, appErr(t, err).Message)
}
