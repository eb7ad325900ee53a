package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/anatolykoptev/go_tube/internal/analysis"
)

// emotionLabels collects the distinct emotions in segment order, sorted for
// stable chart legends across runs.
func emotionLabels(segs []analysis.SegmentEmotion) []string {
	seen := map[string]bool{}
	for _, s := range segs {
		seen[s.Emotion] = true
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func renderTo(path string, r interface{ Render(w io.Writer) error }) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return r.Render(f)
}

// WriteEmotionTimeline renders a stacked area chart of emotion confidence
// over the video timeline.
func WriteEmotionTimeline(dir, title string, segs []analysis.SegmentEmotion) (string, error) {
	path := filepath.Join(dir, "emotion_timeline.html")

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Emotion over time", Subtitle: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
	)

	xs := make([]string, len(segs))
	for i, s := range segs {
		xs[i] = secondsToMMSS(s.Start)
	}
	line.SetXAxis(xs)

	for _, label := range emotionLabels(segs) {
		data := make([]opts.LineData, len(segs))
		for i, s := range segs {
			v := 0.0
			if s.Emotion == label {
				v = round2(s.Score)
			}
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(label, data)
	}
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{Stack: "emotion"}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.5}),
	)
	return path, renderTo(path, line)
}

// WriteEmotionHeatmap renders a timeline × emotion heatmap of confidence.
func WriteEmotionHeatmap(dir, title string, segs []analysis.SegmentEmotion) (string, error) {
	path := filepath.Join(dir, "emotion_heatmap.html")

	labels := emotionLabels(segs)
	labelIdx := make(map[string]int, len(labels))
	for i, l := range labels {
		labelIdx[l] = i
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Emotion heatmap", Subtitle: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: labels}),
		charts.WithVisualMapOpts(opts.VisualMap{Calculable: true, Min: 0, Max: 1}),
	)

	xs := make([]string, len(segs))
	data := make([]opts.HeatMapData, 0, len(segs))
	for i, s := range segs {
		xs[i] = secondsToMMSS(s.Start)
		data = append(data, opts.HeatMapData{
			Value: [3]interface{}{i, labelIdx[s.Emotion], round2(s.Score)},
		})
	}
	hm.SetXAxis(xs).AddSeries("emotion", data)
	return path, renderTo(path, hm)
}

// WriteSentimentBar renders a bar chart of comment sentiment counts.
func WriteSentimentBar(dir, title string, comments []analysis.CommentSentiment) (string, error) {
	path := filepath.Join(dir, "comment_sentiment.html")

	counts := map[string]int{}
	for _, c := range comments {
		counts[c.Sentiment]++
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Comment sentiment", Subtitle: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
	)
	data := make([]opts.BarData, len(labels))
	for i, l := range labels {
		data[i] = opts.BarData{Value: counts[l]}
	}
	bar.SetXAxis(labels).AddSeries("comments", data)
	return path, renderTo(path, bar)
}
