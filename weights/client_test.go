package weights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second, time.Millisecond)
}

func TestLoadGroupsRecordsByDayAndMember(t *testing.T) {
	records := []map[string]interface{}{
		{"peopleCard": "0001820210565", "peopleName": "张三", "house": "Red",
			"yeargroup": "Y7", "formclass": "7A", "addTime": "2024-05-13 12:01:30", "weight": 50.0},
		{"peopleCard": "1820210565", "peopleName": "张三", "house": "Red",
			"yeargroup": "Y7", "formclass": "7A", "addTime": "2024-05-13 12:40:00", "weight": 30.0},
		{"peopleCard": "1820210565", "addTime": "2024-05-14 12:00:00", "weight": 100.0},
		{"peopleCard": "99", "peopleName": "李四", "addTime": "2024-05-13 12:05:00", "weight": 20.0},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-05-13", r.URL.Query().Get("beginTime"))
		assert.Equal(t, "2024-05-14", r.URL.Query().Get("endTime"))
		require.NoError(t, json.NewEncoder(w).Encode(records))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	start, _ := time.Parse("2006-01-02", "2024-05-13")
	end, _ := time.Parse("2006-01-02", "2024-05-14")

	byDay, attrs, err := client.Load(context.Background(), start, end)
	require.NoError(t, err)

	// Leading zeros on peopleCard collapse onto one member.
	assert.Equal(t, []float64{50, 30}, byDay["2024-05-13"][1820210565])
	assert.Equal(t, []float64{100}, byDay["2024-05-14"][1820210565])
	assert.Equal(t, []float64{20}, byDay["2024-05-13"][99])

	require.Contains(t, attrs, int64(1820210565))
	assert.Equal(t, "张三", attrs[1820210565].Name)
	assert.Equal(t, "Red", attrs[1820210565].House)
	assert.Equal(t, "Y7", attrs[1820210565].YearGroup)
	assert.Equal(t, "7A", attrs[1820210565].FormClass)
}

func TestLoadSkipsUnusableRecords(t *testing.T) {
	records := []map[string]interface{}{
		{"peopleCard": "not-a-number", "addTime": "2024-05-13 12:00:00", "weight": 10.0},
		{"peopleCard": "77", "addTime": "garbage", "weight": 10.0},
		{"peopleCard": "77", "addTime": "2024-05-13 12:00:00", "weight": -5.0},
		{"peopleCard": "77", "addTime": "2024-05-13 12:00:00", "weight": 15.0},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(records))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	start, _ := time.Parse("2006-01-02", "2024-05-13")

	byDay, _, err := client.Load(context.Background(), start, start)
	require.NoError(t, err)
	assert.Equal(t, []float64{15}, byDay["2024-05-13"][77])
}

func TestLoadRemoteFailureDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	start, _ := time.Parse("2006-01-02", "2024-05-13")

	byDay, attrs, err := client.Load(context.Background(), start, start)
	require.NoError(t, err)
	assert.Empty(t, byDay)
	assert.Empty(t, attrs)
}

func TestLoadBadJSONDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	start, _ := time.Parse("2006-01-02", "2024-05-13")

	byDay, attrs, err := client.Load(context.Background(), start, start)
	require.NoError(t, err)
	assert.Empty(t, byDay)
	assert.Empty(t, attrs)
}

func TestLoadCancelledContextPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start, _ := time.Parse("2006-01-02", "2024-05-13")
	_, _, err := client.Load(ctx, start, start)
	assert.Error(t, err)
}
