package ingest

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featherframe/featherframe/internal/blobstore"
	"github.com/featherframe/featherframe/internal/classifier"
	"github.com/featherframe/featherframe/internal/datastore"
	"github.com/featherframe/featherframe/internal/errors"
)

// fakeBlobStore records every Put and can be told to fail after n writes.
type fakeBlobStore struct {
	puts      []string
	failAfter int // fail the put with this index, -1 never fails
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{failAfter: -1}
}

func (f *fakeBlobStore) Put(ctx context.Context, name string, r io.Reader, meta blobstore.Metadata) error {
	if f.failAfter >= 0 && len(f.puts) == f.failAfter {
		return errors.NewStd("disk full")
	}
	if _, err := io.ReadAll(r); err != nil {
		return err
	}
	f.puts = append(f.puts, name)
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, name string) (io.ReadCloser, blobstore.Metadata, error) {
	return nil, blobstore.Metadata{}, blobstore.ErrNotFound
}

// fakeClassifier returns a fixed result or error.
type fakeClassifier struct {
	result classifier.Result
	err    error
	calls  int
}

func (f *fakeClassifier) Identify(ctx context.Context, image []byte) (classifier.Result, error) {
	f.calls++
	return f.result, f.err
}

// fakeDataStore keeps saved sightings in memory and can fail on demand.
type fakeDataStore struct {
	saved   []datastore.Sighting
	saveErr error
}

func (f *fakeDataStore) Open() error  { return nil }
func (f *fakeDataStore) Close() error { return nil }

func (f *fakeDataStore) Save(s *datastore.Sighting) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	s.ID = uint(len(f.saved) + 1)
	f.saved = append(f.saved, *s)
	return nil
}

func (f *fakeDataStore) Get(id string) (datastore.Sighting, error) {
	return datastore.Sighting{}, errors.NewStd("not implemented")
}

func (f *fakeDataStore) GetByOwner(owner string) ([]datastore.Sighting, error) {
	return f.saved, nil
}

func (f *fakeDataStore) GetByRegion(owner, region string) ([]datastore.Sighting, error) {
	return nil, nil
}

func (f *fakeDataStore) GetBySpecies(owner, species string) ([]datastore.Sighting, error) {
	return nil, nil
}

func (f *fakeDataStore) Search(owner, query string) ([]datastore.Sighting, error) {
	return nil, nil
}

func jpegImage(filename string, size int) Image {
	return Image{
		Filename: filename,
		MIMEType: "image/jpeg",
		Data:     make([]byte, size),
	}
}

func newTestOrchestrator(blobs blobstore.Store, cls classifier.Classifier, ds datastore.Interface) *Orchestrator {
	return New(blobs, cls, ds)
}

func TestIngestUserProvidedMetadata(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	cls := &fakeClassifier{}
	ds := &fakeDataStore{}
	o := newTestOrchestrator(blobs, cls, ds)

	meta := Metadata{
		Name:    "Blue Jay",
		Species: "Cyanocitta cristata",
		Region:  "Vermont",
	}

	created, err := o.Ingest(context.Background(), "alice", []Image{jpegImage("jay.jpg", 100)}, meta)
	require.NoError(t, err)
	require.Len(t, created, 1)

	s := created[0]
	assert.Equal(t, "Blue Jay", s.Name)
	assert.Equal(t, "Cyanocitta cristata", s.Species)
	assert.Equal(t, "Vermont", s.Region)
	assert.Equal(t, "alice", s.Owner)
	assert.Equal(t, datastore.SourceUserProvided, s.Source)
	assert.Nil(t, s.Confidence, "user-provided sightings must not carry a confidence value")
	assert.NotEmpty(t, s.ImageName)
	assert.False(t, s.ObservedAt.IsZero())

	assert.Zero(t, cls.calls, "classifier must not run when name and species are provided")
	assert.Len(t, blobs.puts, 1)
}

func TestIngestClassifierIdentifies(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	cls := &fakeClassifier{
		result: classifier.Result{
			Identified: true,
			Candidates: []classifier.Candidate{{Label: "American Robin", Score: 0.93}},
			Confidence: 0.93,
		},
	}
	ds := &fakeDataStore{}
	o := newTestOrchestrator(blobs, cls, ds)

	created, err := o.Ingest(context.Background(), "alice", []Image{jpegImage("robin.png", 100)}, Metadata{Region: "Maine"})
	require.NoError(t, err)
	require.Len(t, created, 1)

	s := created[0]
	assert.Equal(t, "American Robin", s.Name)
	assert.Equal(t, "American Robin", s.Species, "top candidate label serves as both name and species")
	assert.Equal(t, datastore.SourceAIInferred, s.Source)
	require.NotNil(t, s.Confidence)
	assert.InDelta(t, 0.93, *s.Confidence, 0.0001)
	assert.Equal(t, 1, cls.calls)
}

func TestIngestUnidentifiedIsValidationError(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	cls := &fakeClassifier{result: classifier.Result{Identified: false}}
	ds := &fakeDataStore{}
	o := newTestOrchestrator(blobs, cls, ds)

	created, err := o.Ingest(context.Background(), "alice", []Image{jpegImage("blur.jpg", 100)}, Metadata{})
	require.Error(t, err)
	assert.Nil(t, created)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
	assert.Empty(t, ds.saved, "no sighting may be recorded for an unidentified image")
	assert.Len(t, blobs.puts, 1, "the stored blob is not retracted")
}

func TestIngestClassifierFailureIsValidationError(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	cls := &fakeClassifier{err: errors.NewStd("model unavailable")}
	ds := &fakeDataStore{}
	o := newTestOrchestrator(blobs, cls, ds)

	_, err := o.Ingest(context.Background(), "alice", []Image{jpegImage("bird.jpg", 100)}, Metadata{})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
	assert.Empty(t, ds.saved)
}

func TestIngestBatchFailFastKeepsEarlierCommits(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	blobs.failAfter = 1 // second image's blob write fails
	cls := &fakeClassifier{}
	ds := &fakeDataStore{}
	o := newTestOrchestrator(blobs, cls, ds)

	images := []Image{
		jpegImage("one.jpg", 100),
		jpegImage("two.jpg", 100),
		jpegImage("three.jpg", 100),
	}
	meta := Metadata{Name: "Sparrow", Species: "Passeridae", Region: "Ohio"}

	created, err := o.Ingest(context.Background(), "alice", images, meta)
	require.Error(t, err)
	assert.Nil(t, created)

	// The first image's sighting stays committed, the third was never reached.
	require.Len(t, ds.saved, 1)
	assert.Equal(t, "Sparrow", ds.saved[0].Name)
	assert.Len(t, blobs.puts, 1)
}

func TestIngestBlobWrittenBeforeRecord(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	cls := &fakeClassifier{}
	ds := &fakeDataStore{saveErr: errors.NewStd("db down")}
	o := newTestOrchestrator(blobs, cls, ds)

	meta := Metadata{Name: "Sparrow", Species: "Passeridae", Region: "Ohio"}
	_, err := o.Ingest(context.Background(), "alice", []Image{jpegImage("one.jpg", 100)}, meta)
	require.Error(t, err)

	// The blob was durably written even though the record failed.
	assert.Len(t, blobs.puts, 1)
	assert.Empty(t, ds.saved)
}

func TestIngestBatchValidation(t *testing.T) {
	t.Parallel()

	meta := Metadata{Name: "Sparrow", Species: "Passeridae", Region: "Ohio"}

	tooMany := make([]Image, 11)
	for i := range tooMany {
		tooMany[i] = jpegImage("img.jpg", 10)
	}

	tests := []struct {
		name   string
		owner  string
		images []Image
	}{
		{"missing owner", "", []Image{jpegImage("a.jpg", 10)}},
		{"empty batch", "alice", nil},
		{"too many images", "alice", tooMany},
		{"unsupported type", "alice", []Image{{Filename: "a.gif", MIMEType: "image/gif", Data: []byte{1}}}},
		{"empty file", "alice", []Image{{Filename: "a.jpg", MIMEType: "image/jpeg"}}},
		{"oversized file", "alice", []Image{jpegImage("big.jpg", 5*1024*1024+1)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			blobs := newFakeBlobStore()
			ds := &fakeDataStore{}
			o := newTestOrchestrator(blobs, &fakeClassifier{}, ds)

			_, err := o.Ingest(context.Background(), tc.owner, tc.images, meta)
			require.Error(t, err)
			assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
			assert.Empty(t, blobs.puts, "validation failures must happen before any storage write")
			assert.Empty(t, ds.saved)
		})
	}
}

func TestIngestCancelledContextAbandonsBatch(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	ds := &fakeDataStore{}
	o := newTestOrchestrator(blobs, &fakeClassifier{}, ds)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	meta := Metadata{Name: "Sparrow", Species: "Passeridae", Region: "Ohio"}
	_, err := o.Ingest(ctx, "alice", []Image{jpegImage("a.jpg", 10)}, meta)
	require.Error(t, err)
	assert.Empty(t, ds.saved)
}
