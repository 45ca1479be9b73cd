package httpapi

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/internal/content"
)

// collectionCount is the number of documents in one collection.
type collectionCount struct {
	Label string
	Count int
}

func (s *Server) counts(c *gin.Context) ([]collectionCount, error) {
	out := make([]collectionCount, 0, len(content.All()))
	for _, schema := range content.All() {
		coll, err := s.app.Collection(schema.Kind)
		if err != nil {
			return nil, err
		}
		docs, err := coll.List(c.Request.Context(), schema.Order)
		if err != nil {
			return nil, err
		}
		out = append(out, collectionCount{Label: schema.Plural, Count: len(docs)})
	}
	return out, nil
}

// stats renders a bar chart of document counts per collection.
func (s *Server) stats(c *gin.Context) {
	counts, err := s.counts(c)
	if err != nil {
		s.logger.Error("count documents", zap.Error(err))
		c.AbortWithError(http.StatusBadGateway, err)
		return
	}

	labels := make([]string, 0, len(counts))
	data := make([]opts.BarData, 0, len(counts))
	for _, cc := range counts {
		labels = append(labels, cc.Label)
		data = append(data, opts.BarData{Name: cc.Label, Value: cc.Count})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "qurancms stats", Width: "100%"}),
		charts.WithTitleOpts(opts.Title{Title: "Library contents", Subtitle: "Documents per collection"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	bar.SetXAxis(labels).AddSeries("Documents", data)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
