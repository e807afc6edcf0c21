package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worlddex/internal/core/geo"
	"worlddex/internal/core/moderation"
	"worlddex/internal/core/routing"
	perr "worlddex/internal/platform/errors"
	"worlddex/internal/services/api/identify/domain"
	t2 "worlddex/internal/services/tier2/domain"
)

var img = base64.StdEncoding.EncodeToString([]byte("not really a jpeg"))

func newSvc(t *testing.T, v *fakeVision, enq *fakeEnqueuer) *Svc {
	t.Helper()
	c, err := NewClassifier(v, moderation.MustDefault(), time.Second)
	require.NoError(t, err)
	return New(Options{
		Classifier: c,
		Enqueuer:   enq,
		Jobs:       &scriptJobs{next: func(int) (t2.Job, error) { return t2.Job{}, perr.NotFoundf("nope") }},
		Routing:    routing.DefaultConfig(),
	})
}

func TestIdentify_ScenarioA_SpeciesQueued(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := newSvc(t, &fakeVision{text: `{"label":"Golden Retriever","category":"animal","subcategory":"dog","rarityScore":40}`}, enq)

	out, err := s.Identify(context.Background(), domain.IdentifyInput{
		ImageData:         img,
		ContentType:       "image/jpeg",
		ActiveCollections: []string{"Organisms"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, out.Status)
	assert.Equal(t, "job-1", out.JobID)
	assert.Nil(t, out.Tier2)

	require.Len(t, enq.module, 1)
	assert.Equal(t, routing.ModuleSpecies, enq.module[0])
	assert.Equal(t, "Golden Retriever", enq.loads[0].Label)
	assert.Equal(t, "animal", enq.loads[0].Category)
	assert.Equal(t, []byte("not really a jpeg"), enq.loads[0].Image)
	assert.Equal(t, "image/jpeg", enq.loads[0].ContentType)
}

func TestIdentify_ScenarioB_LandmarkQueued(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := newSvc(t, &fakeVision{text: `{"label":"tower","category":"building","subcategory":null,"rarityScore":70}`}, enq)

	gps := &geo.Point{Lat: 37.4251, Lng: -122.1693}
	out, err := s.Identify(context.Background(), domain.IdentifyInput{
		ImageData:         "data:image/png;base64," + img,
		ContentType:       "image/png",
		GPS:               gps,
		ActiveCollections: []string{"stanford"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, out.Status)
	require.Len(t, enq.module, 1)
	assert.Equal(t, routing.ModuleLandmark, enq.module[0])
	assert.Equal(t, gps, enq.loads[0].GPS)
}

func TestIdentify_ScenarioC_NoJob(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := newSvc(t, &fakeVision{text: `{"label":"Coffee Mug","category":"object","rarityScore":5}`}, enq)

	out, err := s.Identify(context.Background(), domain.IdentifyInput{ImageData: img, ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, out.Status)
	assert.Empty(t, out.JobID)
	require.NotNil(t, out.Tier1.Label)
	assert.Equal(t, "Coffee Mug", *out.Tier1.Label)
	assert.Empty(t, enq.module)
}

func TestIdentify_RejectedNeverRoutes(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := newSvc(t, &fakeVision{text: `{"label":"woman","category":"animal","rarityScore":90}`}, enq)

	out, err := s.Identify(context.Background(), domain.IdentifyInput{
		ImageData:         img,
		ContentType:       "image/jpeg",
		GPS:               &geo.Point{Lat: 37.4251, Lng: -122.1693},
		ActiveCollections: []string{"Organisms", "Stanford"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, out.Status)
	assert.True(t, out.Tier1.Rejected())
	assert.Empty(t, enq.module)
}

func TestIdentify_LenientAnswerQueuesCleanLabel(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := newSvc(t, &fakeVision{text: `{"label":"Oak Tree","category":"plant","rarityScore":"85"}`}, enq)

	out, err := s.Identify(context.Background(), domain.IdentifyInput{
		ImageData:         img,
		ContentType:       "image/jpeg",
		ActiveCollections: []string{"Organisms"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, out.Status)
	require.Len(t, enq.module, 1)
	assert.Equal(t, routing.ModuleSpecies, enq.module[0])
	assert.Equal(t, "Oak Tree", enq.loads[0].Label)
	assert.Equal(t, "plant", enq.loads[0].Category)
}

func TestIdentify_LenientAnswerStillRejected(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := newSvc(t, &fakeVision{text: `{"label":"person","category":"person","rarityScore":"high"}`}, enq)

	out, err := s.Identify(context.Background(), domain.IdentifyInput{
		ImageData:         img,
		ContentType:       "image/jpeg",
		ActiveCollections: []string{"Organisms"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, out.Status)
	assert.True(t, out.Tier1.Rejected())
	assert.Zero(t, out.Tier1.XPValue)
	assert.Empty(t, enq.module)
}

func TestIdentify_BadImageSkipsProvider(t *testing.T) {
	v := &fakeVision{text: `{"label":"x"}`}
	s := newSvc(t, v, &fakeEnqueuer{})

	_, err := s.Identify(context.Background(), domain.IdentifyInput{ImageData: "***", ContentType: "image/jpeg"})
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
	assert.Empty(t, v.reqs)
}

func TestIdentify_BadGPS(t *testing.T) {
	v := &fakeVision{text: `{"label":"x"}`}
	s := newSvc(t, v, &fakeEnqueuer{})

	_, err := s.Identify(context.Background(), domain.IdentifyInput{
		ImageData:   img,
		ContentType: "image/jpeg",
		GPS:         &geo.Point{Lat: 91, Lng: 0},
	})
	require.Error(t, err)
	assert.Empty(t, v.reqs)
}

func TestIdentify_ProviderFailureIsHard(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := newSvc(t, &fakeVision{err: errors.New("connection reset")}, enq)

	_, err := s.Identify(context.Background(), domain.IdentifyInput{
		ImageData:         img,
		ContentType:       "image/jpeg",
		ActiveCollections: []string{"Organisms"},
	})
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
	assert.Empty(t, enq.module)
}

func TestIdentify_EnqueueFailure(t *testing.T) {
	s := newSvc(t, &fakeVision{text: `{"label":"Oak","category":"plant","rarityScore":20}`}, &fakeEnqueuer{err: errors.New("store down")})

	_, err := s.Identify(context.Background(), domain.IdentifyInput{
		ImageData:         img,
		ContentType:       "image/jpeg",
		ActiveCollections: []string{"Organisms"},
	})
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
}

func TestNew_PanicsWithoutPorts(t *testing.T) {
	assert.Panics(t, func() { New(Options{}) })
}
