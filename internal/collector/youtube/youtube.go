// Package youtube collects video metadata through the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"misinfo/internal/collector"
	"misinfo/internal/record"
)

const Source = "youtube"

var videoParts = []string{"snippet", "contentDetails", "statistics"}

type Collector struct {
	svc  *yt.Service
	sink collector.Sink
}

// New builds a collector. Extra options (an endpoint, an HTTP client) are
// appended after the API key.
func New(ctx context.Context, apiKey string, sink collector.Sink, opts ...option.ClientOption) (*Collector, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: YOUTUBE_API_KEY", collector.ErrNotConfigured)
	}
	svc, err := yt.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}
	return &Collector{svc: svc, sink: sink}, nil
}

// CollectVideo fetches one video and turns it into a record.
func (c *Collector) CollectVideo(ctx context.Context, videoID string, sendToBackend bool) (*record.Record, error) {
	resp, err := c.svc.Videos.List(videoParts).Id(videoID).Context(ctx).Do()
	if err != nil {
		slog.ErrorContext(ctx, "error retrieving video", "video_id", videoID, "error", err)
		return nil, fmt.Errorf("videos.list %s: %w", videoID, classify(err))
	}
	if len(resp.Items) == 0 {
		slog.WarnContext(ctx, "no video found", "video_id", videoID)
		return nil, fmt.Errorf("video %s: %w", videoID, collector.ErrNotFound)
	}

	rec := toRecord(videoID, resp.Items[0])
	slog.InfoContext(ctx, "retrieved video", "video_id", videoID)

	if sendToBackend {
		collector.Push(ctx, c.sink, rec)
	}
	return rec, nil
}

func toRecord(videoID string, v *yt.Video) *record.Record {
	var title, description string
	meta := map[string]any{
		"video_id":   videoID,
		"url":        "https://www.youtube.com/watch?v=" + videoID,
		"statistics": map[string]any{},
		"tags":       []string{},
	}

	if s := v.Snippet; s != nil {
		title, description = s.Title, s.Description
		meta["title"] = s.Title
		meta["channel"] = s.ChannelTitle
		meta["channel_id"] = s.ChannelId
		meta["publishedAt"] = s.PublishedAt
		meta["category_id"] = s.CategoryId
		if s.Tags != nil {
			meta["tags"] = s.Tags
		}
	}
	if cd := v.ContentDetails; cd != nil {
		meta["duration"] = cd.Duration
	}
	if st := v.Statistics; st != nil {
		meta["statistics"] = map[string]any{
			"viewCount":     st.ViewCount,
			"likeCount":     st.LikeCount,
			"commentCount":  st.CommentCount,
			"favoriteCount": st.FavoriteCount,
		}
	}

	return &record.Record{
		Source:      Source,
		Type:        record.TypeVideo,
		ContentText: title + "\n\n" + description,
		Metadata:    meta,
	}
}

func classify(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", collector.ErrRateLimited, err)
	case http.StatusForbidden:
		for _, item := range gerr.Errors {
			if item.Reason == "quotaExceeded" || item.Reason == "rateLimitExceeded" {
				return fmt.Errorf("%w: %v", collector.ErrRateLimited, err)
			}
		}
		return fmt.Errorf("%w: %v", collector.ErrUnauthorized, err)
	case http.StatusBadRequest, http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", collector.ErrUnauthorized, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", collector.ErrNotFound, err)
	}
	return err
}
