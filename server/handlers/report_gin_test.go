package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"fwat/merge"
	"fwat/server/services"
	"fwat/station"
	"fwat/store"
	"fwat/translator"
	"fwat/weights"
)

type fakeStationLoader struct {
	days map[string][]station.Visit
}

func (f *fakeStationLoader) Load(day string) ([]station.Visit, error) {
	return f.days[day], nil
}

type fakeWeightLoader struct {
	byDay weights.ByDay
	attrs weights.AttributeTable
}

func (f *fakeWeightLoader) Load(ctx context.Context, start, end time.Time) (weights.ByDay, weights.AttributeTable, error) {
	return f.byDay, f.attrs, nil
}

type ReportHandlerSuite struct {
	suite.Suite

	router    *gin.Engine
	storePath string
}

func (s *ReportHandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	table := translator.New()
	table.Add("001", 1820210565)
	table.Add("002", 1820210566)

	stations := &fakeStationLoader{days: map[string][]station.Visit{
		"2024-05-13": {
			{ShortID: "001", Counter: "主食A"},
			{ShortID: "002", Counter: "主食A"},
			{ShortID: "002", Counter: "面档"},
		},
	}}
	weightLoader := &fakeWeightLoader{
		byDay: weights.ByDay{
			"2024-05-13": {
				1820210565: {50},
				1820210566: {30, 30},
			},
		},
		attrs: weights.AttributeTable{
			1820210565: {Name: "张三", House: "Red", YearGroup: "Y7", FormClass: "7A"},
			1820210566: {Name: "李四", House: "Blue", YearGroup: "Y8", FormClass: "8B"},
		},
	}

	s.storePath = filepath.Join(s.T().TempDir(), "merged_data.json")
	engine := merge.New(table, stations, weightLoader)
	service := services.NewReportService(engine, s.storePath, nil)
	handler := NewReportHandler(service)

	s.router = gin.New()
	api := s.router.Group("/api/report")
	api.POST("/run", handler.HandleRunMerge)
	api.GET("/stats", handler.HandleLastStats)
	api.GET("/counters", handler.HandleCounterReport)
	api.GET("/categories", handler.HandleCategoryReport)
	api.GET("/series", handler.HandleSeries)
}

func (s *ReportHandlerSuite) request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ReportHandlerSuite) runMerge() {
	rec := s.request(http.MethodPost, "/api/report/run",
		RunMergeRequest{StartDate: "2024-05-13", EndDate: "2024-05-13"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *ReportHandlerSuite) TestRunMergeReturnsStats() {
	rec := s.request(http.MethodPost, "/api/report/run",
		RunMergeRequest{StartDate: "2024-05-13", EndDate: "2024-05-13"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Stats   merge.Stats `json:"stats"`
		Summary string      `json:"summary"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(3, resp.Stats.StationMatched)
	s.Equal(2, resp.Stats.WeightMatched)
	s.NotEmpty(resp.Summary)

	// The run persisted the snapshot.
	loaded, err := store.Load(s.storePath)
	s.Require().NoError(err)
	s.Len(loaded, 2)
}

func (s *ReportHandlerSuite) TestRunMergeValidation() {
	rec := s.request(http.MethodPost, "/api/report/run",
		map[string]string{"start_date": "2024-05-13"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodPost, "/api/report/run",
		RunMergeRequest{StartDate: "2024-05-14", EndDate: "2024-05-13"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ReportHandlerSuite) TestRunMergeNoDataIsNotFound() {
	rec := s.request(http.MethodPost, "/api/report/run",
		RunMergeRequest{StartDate: "2023-01-01", EndDate: "2023-01-02"})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ReportHandlerSuite) TestLastStats() {
	rec := s.request(http.MethodGet, "/api/report/stats", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	s.runMerge()

	rec = s.request(http.MethodGet, "/api/report/stats", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		Stats merge.Stats `json:"stats"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(3, resp.Stats.StationMatched)
}

func (s *ReportHandlerSuite) TestCounterReport() {
	s.runMerge()

	rec := s.request(http.MethodGet,
		"/api/report/counters?start=2024-05-13&end=2024-05-13", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Report struct {
			Total map[string]float64 `json:"total_wastage"`
			Tally map[string]int     `json:"tally"`
		} `json:"report"`
		RankedTotal []struct {
			Counter string  `json:"counter"`
			Value   float64 `json:"value"`
		} `json:"ranked_total"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))

	// Member 001: 50g on one counter. Member 002: 60g split over two.
	s.InDelta(80, resp.Report.Total["主食A"], 1e-9)
	s.InDelta(30, resp.Report.Total["面档"], 1e-9)
	s.Equal(2, resp.Report.Tally["主食A"])

	s.Require().NotEmpty(resp.RankedTotal)
	s.Equal("主食A", resp.RankedTotal[0].Counter)
}

func (s *ReportHandlerSuite) TestCounterReportRequiresRange() {
	rec := s.request(http.MethodGet, "/api/report/counters?start=2024-05-13", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ReportHandlerSuite) TestCounterReportWithoutSnapshot() {
	rec := s.request(http.MethodGet,
		"/api/report/counters?start=2024-05-13&end=2024-05-13", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ReportHandlerSuite) TestCategoryReport() {
	s.runMerge()

	rec := s.request(http.MethodGet,
		"/api/report/categories?start=2024-05-13&end=2024-05-13", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Categories struct {
			Both         int `json:"both"`
			MultipleBoth int `json:"multiple_both"`
		} `json:"categories"`
		BothPerDay map[string]int `json:"both_per_day"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(1, resp.Categories.Both)
	s.Equal(1, resp.Categories.MultipleBoth)
	s.Equal(1, resp.BothPerDay["2024-05-13"])
}

func (s *ReportHandlerSuite) TestSeriesCumulativeByHouse() {
	s.runMerge()

	rec := s.request(http.MethodGet,
		"/api/report/series?start=2024-05-13&end=2024-05-13&attr=house", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Attr         string                        `json:"attr"`
		Presentation string                        `json:"presentation"`
		Series       map[string]map[string]float64 `json:"series"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("house", resp.Attr)
	s.Equal(services.PresentationCumulative, resp.Presentation)
	s.InDelta(50, resp.Series["Red"]["2024-05-13"], 1e-9)
	s.InDelta(60, resp.Series["Blue"]["2024-05-13"], 1e-9)
}

func (s *ReportHandlerSuite) TestSeriesUnknownPresentation() {
	s.runMerge()

	rec := s.request(http.MethodGet,
		"/api/report/series?start=2024-05-13&end=2024-05-13&presentation=pie", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func TestReportHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReportHandlerSuite))
}
