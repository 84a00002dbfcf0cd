package batch

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/On-Jun9/ShutterMeta/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOps struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeOps) enter() func() {
	n := f.inFlight.Add(1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeOps) fail(op types.Op, path string) error {
	switch {
	case strings.Contains(path, "missing"):
		return &types.MetadataError{Op: op, Kind: types.ErrorKindNotFound, Path: path, Err: errors.New("no such file")}
	case strings.Contains(path, "video"):
		return &types.MetadataError{Op: op, Kind: types.ErrorKindUnreadableFormat, Path: path}
	}
	return nil
}

func (f *fakeOps) GetAllMetadata(path string) (types.AllMetadata, error) {
	defer f.enter()()
	if err := f.fail(types.OpGetAllMetadata, path); err != nil {
		return nil, err
	}
	return types.AllMetadata{"JPEG": {"Image Width": path}}, nil
}

func (f *fakeOps) GetCatalogMetadata(path string) (*types.CatalogRecord, error) {
	defer f.enter()()
	if err := f.fail(types.OpGetCatalogMetadata, path); err != nil {
		return nil, err
	}
	kw := " " + path
	return &types.CatalogRecord{Keywords: &kw}, nil
}

func (f *fakeOps) GetOverlayMetadata(path string) (*types.OverlayRecord, error) {
	defer f.enter()()
	if err := f.fail(types.OpGetOverlayMetadata, path); err != nil {
		return nil, err
	}
	return &types.OverlayRecord{}, nil
}

// TestRunner_Run_KeepsOrderAndCounts는 테스트 코드 동작을 검증하거나 보조합니다.
func TestRunner_Run_KeepsOrderAndCounts(t *testing.T) {
	// 결과는 입력 순서를 유지하고 요약은 성공/실패/NotFound를 세야 한다.
	ops := &fakeOps{}
	r := New(ops, 2, nil)
	paths := []string{"a.jpg", "missing.jpg", "b.jpg", "video.mp4", "c.jpg"}

	results, summary, err := r.Run(types.OpGetCatalogMetadata, paths)
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	for i, res := range results {
		assert.Equal(t, paths[i], res.Path)
	}
	rec, ok := results[2].Value.(*types.CatalogRecord)
	require.True(t, ok)
	assert.Equal(t, " b.jpg", *rec.Keywords)

	assert.Equal(t, string(types.ErrorKindNotFound), results[1].Kind)
	assert.Nil(t, results[1].Value)
	assert.Equal(t, string(types.ErrorKindUnreadableFormat), results[3].Kind)

	assert.Equal(t, types.OpGetCatalogMetadata, summary.Op)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.NotFound)
	assert.False(t, summary.EndTime.Before(summary.StartTime))

	assert.LessOrEqual(t, ops.maxSeen.Load(), int32(2))
}

// TestRunner_Run_ProgressCallback는 테스트 코드 동작을 검증하거나 보조합니다.
func TestRunner_Run_ProgressCallback(t *testing.T) {
	// status → progress(파일 수만큼) → complete 순서로 콜백이 와야 한다.
	r := New(&fakeOps{}, 3, nil)

	var mu sync.Mutex
	var updates []ProgressUpdate
	r.SetProgressCallback(func(u ProgressUpdate) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	})

	_, _, err := r.Run(types.OpGetAllMetadata, []string{"a.jpg", "b.jpg", "missing.jpg"})
	require.NoError(t, err)

	require.Len(t, updates, 5)
	assert.Equal(t, "status", updates[0].Type)
	assert.Equal(t, 3, updates[0].Total)
	for i, u := range updates[1:4] {
		assert.Equal(t, "progress", u.Type)
		assert.Equal(t, i+1, u.Current)
	}
	last := updates[4]
	assert.Equal(t, "complete", last.Type)
	require.NotNil(t, last.Summary)
	assert.Equal(t, 1, last.Summary.Failed)
}

// TestRunner_Run_UnknownOperation는 테스트 코드 동작을 검증하거나 보조합니다.
func TestRunner_Run_UnknownOperation(t *testing.T) {
	// 알 수 없는 연산 이름은 실행 전에 에러여야 한다.
	_, _, err := New(&fakeOps{}, 1, nil).Run(types.Op("getThumbnail"), []string{"a.jpg"})
	assert.Error(t, err)
}

// TestRunner_Run_EmptyInput는 테스트 코드 동작을 검증하거나 보조합니다.
func TestRunner_Run_EmptyInput(t *testing.T) {
	// 경로가 없으면 빈 결과와 0건 요약을 돌려줘야 한다.
	results, summary, err := New(&fakeOps{}, 0, nil).Run(types.OpGetOverlayMetadata, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, summary.Total)
}
