package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ChunkInfo describes a chunked dataset: the provider splits large result
// sets into pre-signed files downloaded separately from the API response.
type ChunkInfo struct {
	ChunkSize       int      `json:"chunk_size"`
	NumChunks       int      `json:"num_chunks"`
	Rows            int      `json:"rows"`
	BaseDownloadURL string   `json:"base_download_url"`
	ChunkFileNames  []string `json:"chunk_file_names"`
}

// DataResult is the outcome of [Client.GetData]: the final payload after
// link resolution plus metadata accumulated across both hops.
type DataResult struct {
	Payload      any
	Chunks       *ChunkInfo
	LinkFollowed bool
	ContentType  string
	SizeBytes    int64
	Duration     time.Duration
}

// ChunkResult carries the records of one or more downloaded chunks. For a
// multi-chunk fetch SizeBytes and Duration are sums over the individual
// downloads, so Duration can exceed wall clock time under concurrency.
type ChunkResult struct {
	Records     []any
	ContentType string
	SizeBytes   int64
	Duration    time.Duration
}

// ChunkRange selects a window of chunk indices for [Client.GetChunks].
type ChunkRange struct {
	Start int

	// Limit caps how many chunks to fetch; 0 means through the end.
	Limit int
}

// GetData fetches an API path and resolves the provider's response shape.
// A payload carrying a link field is replaced by the link target, fetched
// exactly one level deep without auth headers (the grant is in the URL). A
// chunk descriptor on the final payload is surfaced in Chunks.
func (c *Client) GetData(ctx context.Context, path string) (*DataResult, error) {
	res, err := c.Fetch(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	data := &DataResult{
		Payload:     res.Payload,
		ContentType: res.ContentType,
		SizeBytes:   res.SizeBytes,
		Duration:    res.Duration,
	}

	link, chunks := decodeEnvelope(res.Payload)
	if link != "" {
		c.logger.Debug("following link", "path", path)

		linked, err := c.fetchFile(ctx, link)
		if err != nil {
			return nil, err
		}

		data.Payload = linked.Payload
		data.ContentType = linked.ContentType
		data.SizeBytes += linked.SizeBytes
		data.Duration += linked.Duration
		data.LinkFollowed = true

		// One level only: a link inside the link target is data.
		_, chunks = decodeEnvelope(linked.Payload)
	}

	data.Chunks = chunks
	return data, nil
}

// GetChunk downloads a single chunk by index. Descriptor and index problems
// surface before any network traffic.
func (c *Client) GetChunk(ctx context.Context, data *DataResult, index int) (*ChunkResult, error) {
	urls, err := chunkURLs(data)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(urls) {
		return nil, fmt.Errorf("%w: %d of %d", ErrChunkIndex, index, len(urls))
	}
	return c.fetchChunk(ctx, urls[index])
}

// GetChunks downloads a range of chunks concurrently and merges their
// records in ascending chunk order, regardless of completion order. A nil
// range selects every chunk. The start index, defaulted or not, must
// address an existing chunk, so a descriptor with no chunks fails with
// [ErrChunkIndex] before any network traffic. Any failed chunk fails the
// whole call.
func (c *Client) GetChunks(ctx context.Context, data *DataResult, rng *ChunkRange) (*ChunkResult, error) {
	urls, err := chunkURLs(data)
	if err != nil {
		return nil, err
	}

	start, limit := 0, len(urls)
	if rng != nil {
		start = rng.Start
		if rng.Limit > 0 {
			limit = rng.Limit
		}
	}
	if start < 0 || start >= len(urls) {
		return nil, fmt.Errorf("%w: start %d of %d", ErrChunkIndex, start, len(urls))
	}
	end := start + limit
	if end > len(urls) {
		end = len(urls)
	}
	selected := urls[start:end]

	merged := &ChunkResult{Records: []any{}}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		idx int
		url string
	}
	type outcome struct {
		idx    int
		result *ChunkResult
		err    error
	}

	jobs := make(chan job, len(selected))
	results := make(chan outcome, len(selected))

	workers := c.chunkWorkers
	if workers > len(selected) {
		workers = len(selected)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := c.fetchChunk(ctx, j.url)
				results <- outcome{idx: j.idx, result: res, err: err}
			}
		}()
	}

	for i, u := range selected {
		jobs <- job{idx: i, url: u}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	parts := make([]*ChunkResult, len(selected))
	var firstErr error
	for out := range results {
		if out.err != nil {
			if firstErr == nil {
				firstErr = out.err
				cancel()
			}
			continue
		}
		parts[out.idx] = out.result
	}
	if firstErr != nil {
		return nil, firstErr
	}

	for _, part := range parts {
		merged.Records = append(merged.Records, part.Records...)
		merged.SizeBytes += part.SizeBytes
		merged.Duration += part.Duration
		if merged.ContentType == "" {
			merged.ContentType = part.ContentType
		}
	}

	c.logger.Debug("chunks merged",
		"chunks", len(selected),
		"records", len(merged.Records),
		"bytes", merged.SizeBytes)
	return merged, nil
}

// chunkURLs validates the descriptor and resolves the chunk file URLs. When
// the descriptor's chunk count disagrees with its file name list, the pairs
// that exist on both sides define the fetchable range.
func chunkURLs(data *DataResult) ([]string, error) {
	if data == nil || data.Chunks == nil {
		return nil, ErrNoChunkInfo
	}
	info := data.Chunks
	if info.BaseDownloadURL == "" {
		return nil, fmt.Errorf("%w: missing base download url", ErrNoChunkInfo)
	}

	count := info.NumChunks
	if count > len(info.ChunkFileNames) {
		count = len(info.ChunkFileNames)
	}
	if count < 0 {
		count = 0
	}

	urls := make([]string, count)
	for i := 0; i < count; i++ {
		urls[i] = joinURL(info.BaseDownloadURL, info.ChunkFileNames[i])
	}
	return urls, nil
}

// fetchChunk downloads one chunk file and shapes it into records. A chunk
// payload is normally a JSON array; anything else becomes a single record.
func (c *Client) fetchChunk(ctx context.Context, fileURL string) (*ChunkResult, error) {
	res, err := c.fetchFile(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	return &ChunkResult{
		Records:     chunkRecords(res.Payload),
		ContentType: res.ContentType,
		SizeBytes:   res.SizeBytes,
		Duration:    res.Duration,
	}, nil
}

func chunkRecords(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case nil:
		return []any{}
	default:
		return []any{v}
	}
}

// fetchFile downloads a pre-signed file URL without auth headers and with
// no 401 retry, optionally through the configured file proxy.
func (c *Client) fetchFile(ctx context.Context, fileURL string) (*Result, error) {
	target := c.proxied(fileURL)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build file request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file response: %w", err)
	}

	return c.buildResult(resp, body, time.Since(start))
}

// proxied rewrites a file URL through the CORS proxy when one is
// configured. The original URL rides in a url query parameter, appended
// with & when the proxy address already carries a query.
func (c *Client) proxied(fileURL string) string {
	if c.fileProxyURL == "" {
		return fileURL
	}
	sep := "?"
	if strings.Contains(c.fileProxyURL, "?") {
		sep = "&"
	}
	return c.fileProxyURL + sep + "url=" + url.QueryEscape(fileURL)
}

// decodeEnvelope re-reads a parsed JSON payload against the provider's
// envelope schema. The two wrappers decode independently so a malformed
// link never hides a usable chunk descriptor, and vice versa. Non-object
// payloads decode to an empty envelope.
func decodeEnvelope(payload any) (link string, chunks *ChunkInfo) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", nil
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return "", nil
	}

	var le struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(raw, &le); err == nil {
		link = le.Link
	}

	var ce struct {
		ChunkInfo *ChunkInfo `json:"chunk_info"`
	}
	if err := json.Unmarshal(raw, &ce); err == nil {
		chunks = ce.ChunkInfo
	}

	return link, chunks
}
