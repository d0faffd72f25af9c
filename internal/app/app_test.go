package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	config "github.com/perone/euclidesdb/internal/cfg"
	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/internal/similartest"
	"github.com/perone/euclidesdb/internal/usecase"
	"github.com/perone/euclidesdb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, srv *similartest.Server) *config.Config {
	t.Helper()

	dir := t.TempDir()
	similartest.WriteJPEG(t, dir, "cat.jpg", 640, 480, 7)
	similartest.WriteJPEG(t, dir, "dog.jpg", 320, 640, 90)

	addr := similartest.ListenTCP(t, srv)

	return &config.Config{
		Similar: &config.SimilarCfg{
			Host:        addr.IP.String(),
			Port:        addr.Port,
			CallTimeout: 2 * time.Second,
			MaxAttempts: 1,
		},
		Image: &config.ImageCfg{
			Width:        224,
			Height:       224,
			ResizeWidth:  300,
			Resample:     "balanced",
			WireFormat:   "jpeg",
			JPEGQuality:  90,
			ResourcesDir: dir,
		},
		Run: &config.RunCfg{
			Models: []string{"resnet18"},
			TopK:   5,
			Batch: []config.BatchEntry{
				{Path: "cat.jpg", ID: 1},
				{Path: "dog.jpg", ID: 2},
			},
			QueryImage:    "cat.jpg",
			Shutdown:      true,
			ShutdownType:  1,
			MaxConcurrent: 2,
		},
	}
}

func TestApp_RunAndShowReports(t *testing.T) {
	srv := similartest.NewServer()
	cfg := testConfig(t, srv)

	mr := miniredis.RunT(t)
	cfg.Redis = &config.RedisCfg{
		Addr:        mr.Addr(),
		DialTimeout: time.Second,
		Timeout:     time.Second,
		ReportTTL:   time.Hour,
	}

	application, err := NewApp(cfg, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, application.Run())

	calls := srv.Calls()
	require.Len(t, calls, 4)
	assert.ElementsMatch(t, []string{"AddImage", "AddImage"}, calls[:2])
	assert.Equal(t, []string{"FindSimilarImage", "Shutdown"}, calls[2:])
	assert.True(t, srv.Has(1))
	assert.True(t, srv.Has(2))

	application, err = NewApp(cfg, logger.NewNop())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, application.ShowReports(&buf, "", 5))

	var report usecase.ReportInfo
	require.NoError(t, json.NewDecoder(&buf).Decode(&report))
	require.Len(t, report.Results, 4)
	for _, res := range report.Results {
		assert.True(t, res.Success, res.Error)
	}
	assert.Equal(t, "AddImage", report.Results[0].Call)
	assert.Equal(t, "Shutdown", report.Results[3].Call)
}

func TestApp_ShowReportsWithoutStore(t *testing.T) {
	application, err := NewApp(testConfig(t, similartest.NewServer()), logger.NewNop())
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, application.ShowReports(&buf, "missing", 0))
	assert.Zero(t, buf.Len())
}

func TestApp_UnreachableRedisIsNotFatal(t *testing.T) {
	cfg := testConfig(t, similartest.NewServer())
	cfg.Run.Shutdown = false
	cfg.Redis = &config.RedisCfg{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		Timeout:     100 * time.Millisecond,
		ReportTTL:   time.Hour,
	}

	application, err := NewApp(cfg, logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, application.reportUC)
	assert.NoError(t, application.Run())
}

func TestRunReqFromCfg(t *testing.T) {
	removeID, queryID := int32(7), int32(8)
	req := runReqFromCfg(&config.RunCfg{
		Models:       []string{"resnet18", "vgg16", "resnet18"},
		TopK:         3,
		Batch:        []config.BatchEntry{{Path: "a.jpg", ID: 1, Metadata: "meta"}},
		RemoveID:     &removeID,
		QueryImage:   "q.jpg",
		QueryID:      &queryID,
		Shutdown:     true,
		ShutdownType: 2,
	})

	assert.Equal(t, domain.ModelSelector{"resnet18", "vgg16"}, req.Models)
	assert.Equal(t, 3, req.TopK)
	assert.Equal(t, []usecase.BatchItem{{Path: "a.jpg", ID: 1, Metadata: "meta"}}, req.Batch)
	require.NotNil(t, req.RemoveID)
	assert.Equal(t, domain.ImageID(7), *req.RemoveID)
	require.NotNil(t, req.QueryID)
	assert.Equal(t, domain.ImageID(8), *req.QueryID)
	assert.Equal(t, "q.jpg", req.QueryImage)
	assert.True(t, req.Shutdown)
	assert.Equal(t, domain.ShutdownType(2), req.ShutdownType)
}
