package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// ConsoleOutput prints each message prefixed with its topic.
type ConsoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleOutput{w: w}
}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "[%s] %s\n", topic, msg); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error {
	return nil
}

// JSONOutput appends events as JSON lines under
// basePath/topic/year=YYYY/month=MM/day=DD/hour=HH/data.json, partitioned by
// the event timestamp.
type JSONOutput struct {
	basePath string

	mu    sync.Mutex
	files map[string]*os.File
}

func NewJSONOutput(basePath string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		files:    make(map[string]*os.File),
	}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	var event struct {
		Timestamp int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("invalid event on %s: %w", topic, err)
	}
	if event.Timestamp == 0 {
		return fmt.Errorf("invalid event on %s: missing timestamp", topic)
	}

	eventTime := time.UnixMilli(event.Timestamp).UTC()
	year, month, day := eventTime.Date()
	partitionPath := fmt.Sprintf("year=%d/month=%02d/day=%02d/hour=%02d", year, month, day, eventTime.Hour())
	fullPath := filepath.Join(j.basePath, topic, partitionPath)

	j.mu.Lock()
	defer j.mu.Unlock()

	file, ok := j.files[fullPath]
	if !ok {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		var err error
		file, err = os.OpenFile(filepath.Join(fullPath, "data.json"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open event file for topic %s: %w", topic, err)
		}
		j.files[fullPath] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err := file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var lastErr error
	for path, file := range j.files {
		if err := file.Close(); err != nil {
			lastErr = err
		}
		delete(j.files, path)
	}
	return lastErr
}
