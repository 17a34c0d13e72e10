package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"podpipe/internal/catalog"
	"podpipe/internal/logging"
	"podpipe/internal/services"
	"podpipe/internal/textutil"
)

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			ChannelID string `json:"channelId"`
			VideoID   string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type videosResponse struct {
	Items []videoResource `json:"items"`
}

type videoResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		PublishedAt string `json:"publishedAt"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
	} `json:"statistics"`
}

// FindChannelID resolves a channel name to its id via channel search.
func (c *Client) FindChannelID(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "search", "channel name required", nil)
	}
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", name)
	params.Set("type", "channel")
	params.Set("maxResults", "1")

	var resp searchResponse
	if err := c.get(ctx, "search", params, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].ID.ChannelID == "" {
		return "", services.Wrap(services.ErrNotFound, stageName, "search", "no channel found with name "+name, nil)
	}
	return resp.Items[0].ID.ChannelID, nil
}

// ListChannelVideos returns up to limit videos from channelID, newest first.
func (c *Client) ListChannelVideos(ctx context.Context, channelID string, limit int) ([]catalog.Video, error) {
	if limit <= 0 {
		return nil, nil
	}
	var (
		videos    []catalog.Video
		pageToken string
	)
	for len(videos) < limit {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("channelId", channelID)
		params.Set("type", "video")
		params.Set("order", "date")
		params.Set("maxResults", strconv.Itoa(maxResultsPerPage))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page searchResponse
		if err := c.get(ctx, "search", params, &page); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(page.Items))
		for _, item := range page.Items {
			if item.ID.VideoID != "" {
				ids = append(ids, item.ID.VideoID)
			}
		}
		if len(ids) > 0 {
			details, err := c.videoDetails(ctx, ids)
			if err != nil {
				return nil, err
			}
			for _, v := range details {
				if len(videos) >= limit {
					break
				}
				videos = append(videos, toVideo(v))
			}
		}
		c.logger.Debug("catalog page fetched",
			logging.String(logging.FieldEventType, "catalog_page"),
			logging.Int("page_items", len(ids)),
			logging.Int("total", len(videos)),
		)

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return videos, nil
}

// FetchCatalog resolves channel and lists its videos.
func (c *Client) FetchCatalog(ctx context.Context, channel string, limit int) ([]catalog.Video, error) {
	id, err := c.FindChannelID(ctx, channel)
	if err != nil {
		return nil, err
	}
	c.logger.Info("channel resolved",
		logging.String(logging.FieldEventType, "channel_resolved"),
		logging.String("channel", channel),
		logging.String("channel_id", id),
	)
	return c.ListChannelVideos(ctx, id, limit)
}

func (c *Client) videoDetails(ctx context.Context, ids []string) ([]videoResource, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("maxResults", strconv.Itoa(maxResultsPerPage))

	var resp videosResponse
	if err := c.get(ctx, "videos", params, &resp); err != nil {
		return nil, fmt.Errorf("video details: %w", err)
	}
	return resp.Items, nil
}

func toVideo(v videoResource) catalog.Video {
	title, _ := textutil.CleanTitle(v.Snippet.Title, "")
	description := strings.TrimSpace(v.Snippet.Description)
	if description == "" {
		description = "Episode: " + title
	}
	views := v.Statistics.ViewCount
	if views == "" {
		views = "0"
	}
	return catalog.Video{
		Title:       title,
		VideoID:     v.ID,
		URL:         watchURLPrefix + v.ID,
		Description: description,
		Duration:    v.ContentDetails.Duration,
		ViewCount:   views,
		UploadDate:  UploadDate(v.Snippet.PublishedAt),
	}
}

// UploadDate converts an RFC 3339 publish timestamp to MM-DD-YY. The date
// part is taken as published, without shifting time zones.
func UploadDate(publishedAt string) string {
	publishedAt = strings.TrimSpace(publishedAt)
	if len(publishedAt) < len(time.DateOnly) {
		return ""
	}
	day, err := time.Parse(time.DateOnly, publishedAt[:len(time.DateOnly)])
	if err != nil {
		return ""
	}
	return day.Format("01-02-06")
}
