package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/index"
	"github.com/viant/nearstop/radius"
)

// Defaults for request limits.
const (
	DefaultMaxK     = 100
	DefaultMaxBatch = 10000
)

// Options configures a Server.
type Options struct {
	MaxK     int
	MaxBatch int
	Workers  int
	Logger   zerolog.Logger
	// Cache, when set, serves repeated GET queries from Redis.
	Cache *Cache
}

// Server answers nearest stop queries against one immutable index.
type Server struct {
	idx     index.Index
	within  *radius.Index
	options Options
}

// New creates a server over a built index.
func New(idx index.Index, options Options) (*Server, error) {
	if idx == nil || idx.Len() == 0 {
		return nil, fmt.Errorf("server: %w", geo.ErrEmptyCandidateSet)
	}
	within, err := radius.New(idx.Candidates())
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if options.MaxK <= 0 {
		options.MaxK = DefaultMaxK
	}
	if options.MaxBatch <= 0 {
		options.MaxBatch = DefaultMaxBatch
	}
	return &Server{idx: idx, within: within, options: options}, nil
}

// Handler returns the gin engine serving all routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.options.Logger))
	r.GET("/healthz", s.health)
	v1 := r.Group("/v1")
	{
		v1.GET("/nearest", s.nearest)
		v1.POST("/nearest", s.nearestBatch)
		v1.GET("/within", s.withinRadius)
	}
	return r
}

// Stop is one match in a response.
type Stop struct {
	Position int     `json:"position"`
	ID       string  `json:"id,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Rank     int     `json:"rank"`
	Distance float64 `json:"distance"`
}

// BatchRequest is the POST /v1/nearest body.
type BatchRequest struct {
	K      int          `json:"k"`
	Points []BatchPoint `json:"points"`
}

// BatchPoint is a query coordinate; both fields are required.
type BatchPoint struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// pair returns [lat, lon]; a missing field shortens the pair.
func (p BatchPoint) pair() []float64 {
	pair := make([]float64, 0, 2)
	if p.Lat != nil {
		pair = append(pair, *p.Lat)
	}
	if p.Lon != nil {
		pair = append(pair, *p.Lon)
	}
	return pair
}

// BatchResponse holds the matches of every point in request order.
type BatchResponse struct {
	Results [][]Stop `json:"results"`
}

var errBadRequest = errors.New("bad request")

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "stops": s.idx.Len()})
}

func (s *Server) nearest(c *gin.Context) {
	p, err := queryPoint(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	k, err := s.queryK(c.DefaultQuery("k", "1"))
	if err != nil {
		s.fail(c, err)
		return
	}
	key := s.options.Cache.key("nearest", p.Lat, p.Lon, float64(k))
	s.cached(c, key, func() ([]geo.Match, error) {
		return s.idx.Query(geo.NewPointSet(geo.WGS84, p), k)
	})
}

func (s *Server) nearestBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.K == 0 {
		req.K = 1
	}
	if req.K > s.options.MaxK {
		s.fail(c, fmt.Errorf("%w: k=%d exceeds limit %d", geo.ErrInvalidK, req.K, s.options.MaxK))
		return
	}
	if len(req.Points) > s.options.MaxBatch {
		s.fail(c, fmt.Errorf("%w: %d points exceed limit %d", errBadRequest, len(req.Points), s.options.MaxBatch))
		return
	}
	pairs := make([][]float64, len(req.Points))
	for i, p := range req.Points {
		pairs[i] = p.pair()
	}
	set, err := geo.NewPointSetFromPairs(geo.WGS84, pairs)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := BatchResponse{Results: make([][]Stop, len(req.Points))}
	if len(req.Points) == 0 {
		c.JSON(http.StatusOK, resp)
		return
	}
	matches, err := index.Query(s.idx, set, req.K, s.options.Workers)
	if err != nil {
		s.fail(c, err)
		return
	}
	for i := range resp.Results {
		resp.Results[i] = s.stops(matches[i*req.K : (i+1)*req.K])
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) withinRadius(c *gin.Context) {
	p, err := queryPoint(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	meters, err := strconv.ParseFloat(c.Query("radius"), 64)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: radius: %v", geo.ErrInvalidRadius, err))
		return
	}
	key := s.options.Cache.key("within", p.Lat, p.Lon, meters)
	s.cached(c, key, func() ([]geo.Match, error) {
		return s.within.Within(p, meters)
	})
}

// cached answers from the cache when possible, otherwise runs query and
// stores its successful result.
func (s *Server) cached(c *gin.Context, key string, query func() ([]geo.Match, error)) {
	ctx := c.Request.Context()
	if stops, ok := s.options.Cache.get(ctx, key, s.options.Logger); ok {
		c.Header("X-Cache", "hit")
		c.JSON(http.StatusOK, stops)
		return
	}
	matches, err := query()
	if err != nil {
		s.fail(c, err)
		return
	}
	stops := s.stops(matches)
	if s.options.Cache != nil {
		s.options.Cache.set(ctx, key, stops, s.options.Logger)
		c.Header("X-Cache", "miss")
	}
	c.JSON(http.StatusOK, stops)
}

func (s *Server) stops(matches []geo.Match) []Stop {
	records := s.idx.Candidates().Records
	ret := make([]Stop, len(matches))
	for i, m := range matches {
		r := records[m.Candidate]
		ret[i] = Stop{
			Position: m.Candidate,
			ID:       r.ID,
			Lat:      r.Point.Lat,
			Lon:      r.Point.Lon,
			Rank:     m.Rank,
			Distance: m.Distance,
		}
	}
	return ret
}

func queryPoint(c *gin.Context) (geo.Point, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: lat: %v", geo.ErrDimensionMismatch, err)
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: lon: %v", geo.ErrDimensionMismatch, err)
	}
	p := geo.Point{Lat: lat, Lon: lon}
	return p, p.Validate()
}

func (s *Server) queryK(value string) (int, error) {
	k, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", geo.ErrInvalidK, err)
	}
	if k > s.options.MaxK {
		return 0, fmt.Errorf("%w: k=%d exceeds limit %d", geo.ErrInvalidK, k, s.options.MaxK)
	}
	return k, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, geo.ErrInvalidK),
		errors.Is(err, geo.ErrDimensionMismatch),
		errors.Is(err, geo.ErrCoordinateOutOfRange),
		errors.Is(err, geo.ErrInvalidRadius):
		status = http.StatusBadRequest
	}
	body := gin.H{"error": err.Error()}
	var pointErr *geo.PointError
	if errors.As(err, &pointErr) {
		body["position"] = pointErr.Position
	}
	c.AbortWithStatusJSON(status, body)
}
