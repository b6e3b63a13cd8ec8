package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laser_backend/internal/feature/outputsettings/domain/entity"
)

// mockStore はテスト用のProfileStoreモック実装です。
type mockStore struct {
	recentFn func(ctx context.Context, profile string, limit int) ([]entity.EventRecord, error)
	commitFn func(ctx context.Context, st entity.State, rec entity.EventRecord) error
	saveFn   func(ctx context.Context, name string, version uint64, st entity.State) error
}

func (m *mockStore) Find(context.Context, string) (entity.State, entity.ProfileSummary, error) {
	return entity.State{}, entity.ProfileSummary{}, nil
}

func (m *mockStore) Save(ctx context.Context, name string, version uint64, st entity.State) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, name, version, st)
	}
	return nil
}

func (m *mockStore) Commit(ctx context.Context, st entity.State, rec entity.EventRecord) error {
	if m.commitFn != nil {
		return m.commitFn(ctx, st, rec)
	}
	return nil
}

func (m *mockStore) CommitAll(context.Context, entity.State, []entity.EventRecord) error {
	return nil
}

func (m *mockStore) List(context.Context) ([]entity.ProfileSummary, error) {
	return nil, nil
}

func (m *mockStore) Recent(ctx context.Context, profile string, limit int) ([]entity.EventRecord, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, profile, limit)
	}
	return nil, nil
}

func (m *mockStore) Since(context.Context, string, uint64) ([]entity.EventRecord, error) {
	return nil, nil
}

func testRecords() []entity.EventRecord {
	return []entity.EventRecord{{
		Profile:    "stage",
		Version:    4,
		Event:      entity.Event{Kind: entity.EventSetValue, Slider: entity.SliderPower, Value: 40},
		OperatorID: 2,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}
}

// TestNewCachingHistory_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingHistory_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{"default values when zero/empty", 0, "", 30 * time.Second, "history"},
		{"negative ttl uses default", -time.Minute, "", 30 * time.Second, "history"},
		{"custom values preserved", time.Minute, "rig", time.Minute, "rig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewCachingHistory(nil, tt.ttl, &mockStore{}, tt.namespace)
			assert.Equal(t, tt.expectedTTL, c.ttl)
			assert.Equal(t, tt.expectedNamespace, c.namespace)
		})
	}
}

// TestCachingHistory_Recent_NilRedis はRedisがnilの場合にキャッシュをバイパスすることを検証します。
func TestCachingHistory_Recent_NilRedis(t *testing.T) {
	t.Parallel()

	calls := 0
	inner := &mockStore{recentFn: func(context.Context, string, int) ([]entity.EventRecord, error) {
		calls++
		return testRecords(), nil
	}}
	c := NewCachingHistory(nil, time.Minute, inner, "")

	for range 2 {
		got, err := c.Recent(context.Background(), "stage", 50)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, 2, calls)
}

// TestCachingHistory_Recent_CacheHit はキャッシュヒット時に内部リポジトリを呼ばないことを検証します。
func TestCachingHistory_Recent_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	cached, _ := json.Marshal(testRecords())
	mock.ExpectGet("history:stage:50").SetVal(string(cached))

	inner := &mockStore{recentFn: func(context.Context, string, int) ([]entity.EventRecord, error) {
		t.Error("inner repository should not be called on cache hit")
		return nil, nil
	}}

	got, err := NewCachingHistory(rdb, time.Minute, inner, "").Recent(context.Background(), "stage", 50)
	require.NoError(t, err)
	assert.Equal(t, testRecords(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingHistory_Recent_CacheMiss はキャッシュミス時にDBから取得してキャッシュに保存することを検証します。
func TestCachingHistory_Recent_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	want, _ := json.Marshal(testRecords())
	mock.ExpectGet("history:stage:50").RedisNil()
	mock.ExpectSet("history:stage:50", want, time.Minute).SetVal("OK")

	inner := &mockStore{recentFn: func(context.Context, string, int) ([]entity.EventRecord, error) {
		return testRecords(), nil
	}}

	got, err := NewCachingHistory(rdb, time.Minute, inner, "").Recent(context.Background(), "stage", 50)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingHistory_Recent_CorruptedCache は破損したキャッシュを削除してDBにフォールバックすることを検証します。
func TestCachingHistory_Recent_CorruptedCache(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	want, _ := json.Marshal(testRecords())
	mock.ExpectGet("history:stage:10").SetVal("invalid json")
	mock.ExpectDel("history:stage:10").SetVal(1)
	mock.ExpectSet("history:stage:10", want, time.Minute).SetVal("OK")

	inner := &mockStore{recentFn: func(context.Context, string, int) ([]entity.EventRecord, error) {
		return testRecords(), nil
	}}

	_, err := NewCachingHistory(rdb, time.Minute, inner, "").Recent(context.Background(), "stage", 10)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingHistory_Recent_InnerError は内部リポジトリのエラーが伝播されることを検証します。
func TestCachingHistory_Recent_InnerError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	expectedErr := errors.New("database error")
	mock.ExpectGet("history:stage:50").RedisNil()

	inner := &mockStore{recentFn: func(context.Context, string, int) ([]entity.EventRecord, error) {
		return nil, expectedErr
	}}

	_, err := NewCachingHistory(rdb, time.Minute, inner, "").Recent(context.Background(), "stage", 50)
	assert.ErrorIs(t, err, expectedErr)
}

// TestCachingHistory_CommitInvalidates はCommit後にプロファイルのキャッシュが無効化されることを検証します。
func TestCachingHistory_CommitInvalidates(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectScan(0, "history:stage:*", 200).SetVal([]string{"history:stage:50", "history:stage:10"}, 0)
	mock.ExpectDel("history:stage:50", "history:stage:10").SetVal(2)

	c := NewCachingHistory(rdb, time.Minute, &mockStore{}, "")
	err := c.Commit(context.Background(), entity.State{}, entity.EventRecord{Profile: "stage", Version: 5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingHistory_CommitAllInvalidates はまとめて書き込んだ後に一度だけキャッシュが無効化されることを検証します。
func TestCachingHistory_CommitAllInvalidates(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectScan(0, "history:stage:*", 200).SetVal([]string{"history:stage:50"}, 0)
	mock.ExpectDel("history:stage:50").SetVal(1)

	recs := []entity.EventRecord{{Profile: "stage", Version: 1}, {Profile: "stage", Version: 2}}
	c := NewCachingHistory(rdb, time.Minute, &mockStore{}, "")
	require.NoError(t, c.CommitAll(context.Background(), entity.State{}, recs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingHistory_SaveInvalidates はSave後にもキャッシュが無効化されることを検証します。
func TestCachingHistory_SaveInvalidates(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectScan(0, "history:club:*", 200).SetVal([]string{}, 0)

	c := NewCachingHistory(rdb, time.Minute, &mockStore{}, "")
	require.NoError(t, c.Save(context.Background(), "club", 0, entity.State{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingHistory_WriteErrorSkipsInvalidation は書き込み失敗時にRedisへアクセスしないことを検証します。
func TestCachingHistory_WriteErrorSkipsInvalidation(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	expectedErr := errors.New("commit failed")
	inner := &mockStore{commitFn: func(context.Context, entity.State, entity.EventRecord) error {
		return expectedErr
	}}

	err := NewCachingHistory(rdb, time.Minute, inner, "").Commit(context.Background(), entity.State{}, entity.EventRecord{Profile: "stage"})
	assert.ErrorIs(t, err, expectedErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestSafe はsafe関数がRedisキーで問題となる文字を正しくエスケープすることを検証します。
func TestSafe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"stage", "stage"},
		{"main stage", "main_stage"},
		{"rig:a", "rig_a"},
		{"a*?[", "a___"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, safe(tt.input))
		})
	}
}
