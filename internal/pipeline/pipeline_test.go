package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlms/pipeline/pkg/ffmpeg"
)

// fakeRunner stands in for ffmpeg/ffprobe. Run synthesizes the output files
// a real encode would leave behind so the upload stage has something to read.
type fakeRunner struct {
	probe       *ffmpeg.ProbeResult
	probeErr    error
	failVariant string
	segments    int
	commands    []*ffmpeg.Command
}

func (f *fakeRunner) Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.probe, nil
}

func (f *fakeRunner) Run(ctx context.Context, cmd *ffmpeg.Command) error {
	f.commands = append(f.commands, cmd)
	out := cmd.Output()
	if f.failVariant != "" && strings.Contains(out, string(os.PathSeparator)+f.failVariant+string(os.PathSeparator)) {
		return &ffmpeg.Error{Args: cmd.Build(), Err: errors.New("exit status 1")}
	}

	switch {
	case strings.HasSuffix(out, ".m3u8"):
		pattern := segmentFilenameArg(cmd.Build())
		for i := 0; i < f.segments; i++ {
			if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte("ts-data"), 0o644); err != nil {
				return err
			}
		}
		return os.WriteFile(out, []byte("#EXTM3U\n"), 0o644)
	case strings.HasSuffix(out, ".jpg"):
		return os.WriteFile(out, []byte("jpeg-data"), 0o644)
	}
	return nil
}

func segmentFilenameArg(args []string) string {
	for i, a := range args {
		if a == "-hls_segment_filename" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

type putCall struct {
	Key          string
	ContentType  string
	CacheControl string
}

// fakeStore records uploads in call order.
type fakeStore struct {
	source string
	getErr error
	putErr map[string]error
	puts   []putCall
}

func (f *fakeStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return io.NopCloser(strings.NewReader(f.source)), nil
}

func (f *fakeStore) PutObject(ctx context.Context, key string, body io.Reader, contentType, cacheControl string) error {
	if err := f.putErr[key]; err != nil {
		return err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	f.puts = append(f.puts, putCall{Key: key, ContentType: contentType, CacheControl: cacheControl})
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (f *fakeStore) keys() []string {
	keys := make([]string, len(f.puts))
	for i, p := range f.puts {
		keys[i] = p.Key
	}
	return keys
}

// fakeRecorder tracks asset state transitions in memory.
type fakeRecorder struct {
	owner       string
	fetchErr    error
	transitions []string
	ready       *ReadyRecord
	failedMsg   string
}

func (f *fakeRecorder) FetchAsset(ctx context.Context, assetID uuid.UUID) (*AssetInfo, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &AssetInfo{OwnerEmail: f.owner}, nil
}

func (f *fakeRecorder) MarkProcessing(ctx context.Context, assetID uuid.UUID) error {
	f.transitions = append(f.transitions, "PROCESSING")
	return nil
}

func (f *fakeRecorder) RecordReady(ctx context.Context, rec ReadyRecord) error {
	f.transitions = append(f.transitions, "READY")
	f.ready = &rec
	return nil
}

func (f *fakeRecorder) RecordFailed(ctx context.Context, assetID uuid.UUID, message string) error {
	f.transitions = append(f.transitions, "FAILED")
	f.failedMsg = message
	return nil
}

// fakeAudit records the lifecycle events it was handed.
type fakeAudit struct {
	events    []string
	failedErr error
}

func (f *fakeAudit) JobStarted(ctx context.Context, assetID, jobID uuid.UUID) {
	f.events = append(f.events, "started")
}

func (f *fakeAudit) JobCompleted(ctx context.Context, assetID, jobID uuid.UUID, elapsed time.Duration, metadata map[string]any) {
	f.events = append(f.events, "completed")
}

func (f *fakeAudit) JobFailed(ctx context.Context, assetID, jobID uuid.UUID, elapsed time.Duration, jobErr error) {
	f.events = append(f.events, "failed")
	f.failedErr = jobErr
}

type testHarness struct {
	pipeline *Pipeline
	runner   *fakeRunner
	store    *fakeStore
	recorder *fakeRecorder
	audit    *fakeAudit
	job      Job
	progress []int
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		runner: &fakeRunner{
			probe: &ffmpeg.ProbeResult{
				Width:        1920,
				Height:       1080,
				VideoCodec:   "h264",
				AudioCodec:   "aac",
				Duration:     30,
				Bitrate:      5_000_000,
				VideoStreams: 1,
				AudioStreams: 1,
			},
			segments: 5,
		},
		store:    &fakeStore{source: "raw-video-bytes"},
		recorder: &fakeRecorder{},
		audit:    &fakeAudit{},
		job: Job{
			JobID:     uuid.New(),
			AssetID:   uuid.New(),
			SourceKey: "uploads/lecture-01.mp4",
		},
	}
	h.pipeline = &Pipeline{
		Runner:      h.runner,
		Store:       h.store,
		Recorder:    h.recorder,
		Audit:       h.audit,
		Config:      DefaultEncodingConfig(),
		StagingRoot: t.TempDir(),
	}
	return h
}

func (h *testHarness) process(t *testing.T) error {
	t.Helper()
	return h.pipeline.Process(context.Background(), h.job, func(pct int) {
		h.progress = append(h.progress, pct)
	})
}

func (h *testHarness) stagingPath() string {
	return h.pipeline.StagingRoot + "/" + h.job.AssetID.String() + "-" + h.job.JobID.String()
}

func TestProcessPublishesFullPackage(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.process(t))

	prefix := "media/" + h.job.AssetID.String()
	keys := h.store.keys()

	// 3 variants x (5 segments + playlist) + 5 thumbnails + master playlist.
	require.Len(t, keys, 3*6+5+1)
	assert.Equal(t, prefix+"/master.m3u8", keys[len(keys)-1])

	for _, variant := range []string{"1080p", "720p", "480p"} {
		playlistIdx := -1
		for i, key := range keys {
			if key == prefix+"/"+variant+"/playlist.m3u8" {
				playlistIdx = i
			}
		}
		require.GreaterOrEqual(t, playlistIdx, 0, "variant %s playlist missing", variant)

		var segmentKeys []string
		for i, key := range keys {
			if !strings.HasPrefix(key, prefix+"/"+variant+"/") || i == playlistIdx {
				continue
			}
			segmentKeys = append(segmentKeys, key)
			assert.Less(t, i, playlistIdx, "segment %s uploaded after its playlist", key)
		}
		assert.Len(t, segmentKeys, 5, "variant %s segment count", variant)
	}

	var thumbKeys []string
	for _, key := range keys {
		if strings.Contains(key, "/thumbs/") {
			thumbKeys = append(thumbKeys, key)
		}
	}
	assert.Equal(t, []string{
		prefix + "/thumbs/thumb_0.jpg",
		prefix + "/thumbs/thumb_1.jpg",
		prefix + "/thumbs/thumb_2.jpg",
		prefix + "/thumbs/thumb_3.jpg",
		prefix + "/thumbs/thumb_4.jpg",
	}, thumbKeys)

	require.NotNil(t, h.recorder.ready)
	assert.Equal(t, []string{"PROCESSING", "READY"}, h.recorder.transitions)
	assert.Equal(t, "https://cdn.example.com/"+prefix+"/master.m3u8", h.recorder.ready.ManifestURL)
	assert.Len(t, h.recorder.ready.Thumbnails, 5)
	assert.Equal(t, int32(30), h.recorder.ready.DurationSeconds)
	assert.Equal(t, int32(1920), h.recorder.ready.Width)
	assert.Equal(t, int32(1080), h.recorder.ready.Height)
	assert.Equal(t, "h264", h.recorder.ready.Metadata["source_codec"])
	assert.Equal(t, false, h.recorder.ready.Metadata["watermarked"])

	assert.Equal(t, []string{"started", "completed"}, h.audit.events)
	assert.Equal(t, []int{10, 20, 30, 60, 80, 90, 100}, h.progress)

	assert.NoDirExists(t, h.stagingPath())
}

func TestProcessEncodeFailureAbortsJob(t *testing.T) {
	h := newHarness(t)
	h.runner.failVariant = "720p"

	err := h.process(t)
	require.Error(t, err)

	var encodeErr *EncodeError
	require.ErrorAs(t, err, &encodeErr)
	assert.Equal(t, "720p", encodeErr.Variant)

	assert.Equal(t, []string{"PROCESSING", "FAILED"}, h.recorder.transitions)
	assert.Contains(t, h.recorder.failedMsg, "720p")
	assert.Equal(t, []string{"started", "failed"}, h.audit.events)
	assert.Same(t, err, h.audit.failedErr)

	// Nothing may be published: no partial ladder, no master playlist.
	assert.Empty(t, h.store.keys())
	assert.NoDirExists(t, h.stagingPath())
}

func TestProcessRejectsSourceWithoutVideoStream(t *testing.T) {
	h := newHarness(t)
	h.runner.probe.VideoStreams = 0

	err := h.process(t)
	require.Error(t, err)

	var metaErr *MetadataError
	require.ErrorAs(t, err, &metaErr)
	assert.Contains(t, metaErr.Error(), "no video stream")

	assert.Equal(t, []string{"PROCESSING", "FAILED"}, h.recorder.transitions)
	assert.Empty(t, h.store.keys())
	assert.NoDirExists(t, h.stagingPath())
}

func TestProcessProbeFailure(t *testing.T) {
	h := newHarness(t)
	h.runner.probeErr = errors.New("ffprobe: moov atom not found")

	err := h.process(t)
	var metaErr *MetadataError
	require.ErrorAs(t, err, &metaErr)
	assert.ErrorContains(t, err, "moov atom not found")
	assert.Equal(t, []string{"PROCESSING", "FAILED"}, h.recorder.transitions)
}

func TestProcessDownloadFailure(t *testing.T) {
	h := newHarness(t)
	h.store.getErr = errors.New("NoSuchKey")

	err := h.process(t)
	var dlErr *DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, h.job.SourceKey, dlErr.Key)

	assert.Equal(t, []string{"PROCESSING", "FAILED"}, h.recorder.transitions)
	assert.Empty(t, h.runner.commands)
	assert.NoDirExists(t, h.stagingPath())
}

func TestProcessUploadFailureMarksFailed(t *testing.T) {
	h := newHarness(t)
	prefix := "media/" + h.job.AssetID.String()
	h.store.putErr = map[string]error{
		prefix + "/480p/playlist.m3u8": errors.New("SlowDown"),
	}

	err := h.process(t)
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)

	assert.Equal(t, []string{"PROCESSING", "FAILED"}, h.recorder.transitions)
	assert.NotContains(t, h.store.keys(), prefix+"/master.m3u8")
	assert.NoDirExists(t, h.stagingPath())
}

func TestProcessWatermarksWhenEnabledAndOwnerKnown(t *testing.T) {
	h := newHarness(t)
	h.pipeline.Config.WatermarkEnabled = true
	h.recorder.owner = "ada@example.com"

	require.NoError(t, h.process(t))

	watermarked := 0
	for _, cmd := range h.runner.commands {
		if !strings.HasSuffix(cmd.Output(), "playlist.m3u8") {
			continue
		}
		chain := cmd.FilterChain()
		assert.Contains(t, chain, "drawtext=text='ada@example.com'")
		assert.Contains(t, chain, "x=w-text_w-20:y=h-text_h-20")
		watermarked++
	}
	assert.Equal(t, 3, watermarked)

	require.NotNil(t, h.recorder.ready)
	assert.Equal(t, true, h.recorder.ready.Metadata["watermarked"])
}

func TestProcessSkipsWatermarkWithoutOwner(t *testing.T) {
	h := newHarness(t)
	h.pipeline.Config.WatermarkEnabled = true
	h.recorder.owner = ""

	require.NoError(t, h.process(t))

	for _, cmd := range h.runner.commands {
		assert.NotContains(t, cmd.FilterChain(), "drawtext")
	}
}

func TestProcessEscapesWatermarkText(t *testing.T) {
	h := newHarness(t)
	h.pipeline.Config.WatermarkEnabled = true
	h.recorder.owner = "o'brien:100%@example.com"

	require.NoError(t, h.process(t))

	var chain string
	for _, cmd := range h.runner.commands {
		if strings.HasSuffix(cmd.Output(), "playlist.m3u8") {
			chain = cmd.FilterChain()
			break
		}
	}
	assert.Contains(t, chain, `o\'brien\:100\%@example.com`)
}

func TestProcessThumbnailSeekPoints(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.process(t))

	var seeks []string
	for _, cmd := range h.runner.commands {
		if !strings.HasSuffix(cmd.Output(), ".jpg") {
			continue
		}
		args := cmd.Build()
		require.Equal(t, "-ss", args[2])
		seeks = append(seeks, args[3])
	}
	assert.Equal(t, []string{"0.000", "7.500", "15.000", "22.500", "29.000"}, seeks)
}

func TestProcessUploadCachePolicy(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.process(t))

	for _, put := range h.store.puts {
		switch {
		case strings.HasSuffix(put.Key, ".m3u8"):
			assert.Equal(t, "public, max-age=60, must-revalidate", put.CacheControl, put.Key)
			assert.Equal(t, "application/vnd.apple.mpegurl", put.ContentType, put.Key)
		case strings.HasSuffix(put.Key, ".ts"):
			assert.Equal(t, "public, max-age=31536000, immutable", put.CacheControl, put.Key)
			assert.Equal(t, "video/mp2t", put.ContentType, put.Key)
		case strings.HasSuffix(put.Key, ".jpg"):
			assert.Equal(t, "public, max-age=31536000, immutable", put.CacheControl, put.Key)
			assert.Equal(t, "image/jpeg", put.ContentType, put.Key)
		}
	}
}
