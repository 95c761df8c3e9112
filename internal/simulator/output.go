package simulator

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/chrisdamba/distsim/internal/cloudwriter"
	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/output"
	"github.com/chrisdamba/distsim/internal/repositories/postgres"
	"github.com/chrisdamba/distsim/internal/simulator/producers"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// sinkFiles opens partition files either on local disk or through a cloud writer.
type sinkFiles struct {
	basePath           string
	folder             string
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
}

type CSVOutput struct {
	sinkFiles
	writers map[string]*csv.Writer
	files   map[string]io.WriteCloser
	headers map[string][]string
}

type JSONOutput struct {
	sinkFiles
	files map[string]io.WriteCloser
}

type ParquetOutput struct {
	sinkFiles
	mu      sync.Mutex
	writers map[string]*writer.ParquetWriter
	files   map[string]source.ParquetFile
}

type ConsoleOutput struct {
	w io.Writer
}

// MultiOutput fans every message out to several destinations.
type MultiOutput struct {
	outputs []OutputDestination
}

type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleOutput{w: w}
}

func NewCSVOutput(basePath, folder string, factory cloudwriter.CloudWriterFactory, bucket string) *CSVOutput {
	return &CSVOutput{
		sinkFiles: sinkFiles{basePath: basePath, folder: folder, cloudWriterFactory: factory, cloudBucketName: bucket},
		writers:   make(map[string]*csv.Writer),
		files:     make(map[string]io.WriteCloser),
		headers:   make(map[string][]string),
	}
}

func NewJSONOutput(basePath, folder string, factory cloudwriter.CloudWriterFactory, bucket string) *JSONOutput {
	return &JSONOutput{
		sinkFiles: sinkFiles{basePath: basePath, folder: folder, cloudWriterFactory: factory, cloudBucketName: bucket},
		files:     make(map[string]io.WriteCloser),
	}
}

func NewParquetOutput(basePath, folder string, factory cloudwriter.CloudWriterFactory, bucket string) *ParquetOutput {
	p := &ParquetOutput{
		sinkFiles: sinkFiles{basePath: basePath, folder: folder, cloudWriterFactory: factory, cloudBucketName: bucket},
		writers:   make(map[string]*writer.ParquetWriter),
		files:     make(map[string]source.ParquetFile),
	}
	return p
}

func NewMultiOutput(outputs ...OutputDestination) *MultiOutput {
	return &MultiOutput{outputs: outputs}
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{
		cloudWriter: cloudWriter,
		offset:      0,
	}
}

func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error) {
	// objects are written once; the current instance is already set up for writing.
	return c, nil
}

func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) {
	// the object is implicitly created when we start writing.
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(p []byte) (n int, err error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (n int, err error) {
	n, err = c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}

// partition returns the relative directory for one topic of one run.
func partition(topic string, msg []byte) (string, map[string]interface{}, error) {
	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		return "", nil, err
	}
	runID, ok := event["runId"].(string)
	if !ok || runID == "" {
		return "", nil, fmt.Errorf("invalid runId")
	}
	return path.Join(topic, "run="+runID), event, nil
}

func (f *sinkFiles) create(partitionPath, name string) (io.WriteCloser, error) {
	if f.cloudWriterFactory != nil {
		objectPath := path.Join(f.folder, partitionPath, name)
		return f.cloudWriterFactory.NewWriter(f.cloudBucketName, objectPath)
	}

	fullPath := filepath.Join(f.basePath, f.folder, filepath.FromSlash(partitionPath))
	if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(fullPath, name))
}

func (c *CSVOutput) WriteMessage(topic string, msg []byte) error {
	partitionPath, event, err := partition(topic, msg)
	if err != nil {
		return err
	}

	csvWriter, ok := c.writers[partitionPath]
	if !ok {
		file, err := c.create(partitionPath, "data.csv")
		if err != nil {
			return err
		}
		csvWriter = csv.NewWriter(file)
		c.writers[partitionPath] = csvWriter
		c.files[partitionPath] = file

		// Write headers if this is a new file
		headers := c.getHeaders(event)
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
		c.headers[partitionPath] = headers
	}

	row := make([]string, len(c.headers[partitionPath]))
	for i, header := range c.headers[partitionPath] {
		row[i] = formatValue(event[header])
	}

	if err := csvWriter.Write(row); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (c *CSVOutput) getHeaders(event map[string]interface{}) []string {
	var headers []string
	for key := range event {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	return headers
}

func (c *CSVOutput) Close() error {
	var lastErr error
	for key, csvWriter := range c.writers {
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			lastErr = err
		}
		if err := c.files[key].Close(); err != nil {
			lastErr = err
		}
	}
	c.writers = make(map[string]*csv.Writer)
	c.files = make(map[string]io.WriteCloser)
	return lastErr
}

// formatValue renders numbers without exponents so ledgers stay spreadsheet friendly.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	partitionPath, _, err := partition(topic, msg)
	if err != nil {
		return err
	}

	file, ok := j.files[partitionPath]
	if !ok {
		file, err = j.create(partitionPath, "data.json")
		if err != nil {
			return err
		}
		j.files[partitionPath] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err = file.Write([]byte("\n"))
	return err
}

func (j *JSONOutput) Close() error {
	var lastErr error
	for _, file := range j.files {
		if err := file.Close(); err != nil {
			lastErr = err
		}
	}
	j.files = make(map[string]io.WriteCloser)
	return lastErr
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	if topic == models.TopicRuns {
		// run summaries are not tabular
		return nil
	}
	partitionPath, _, err := partition(topic, msg)
	if err != nil {
		return err
	}
	record, err := decodeRecord(topic, msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pw, ok := p.writers[partitionPath]
	if !ok {
		pw, err = p.createNewWriter(partitionPath, topic)
		if err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
	}

	if err := pw.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// decodeRecord returns the typed ledger row a parquet topic stores.
func decodeRecord(topic string, msg []byte) (interface{}, error) {
	switch topic {
	case models.TopicDepotDispatch:
		var r models.DepotDispatch
		err := json.Unmarshal(msg, &r)
		return r, err
	case models.TopicOutletDispatch:
		var r models.OutletDispatch
		err := json.Unmarshal(msg, &r)
		return r, err
	case models.TopicStockLevels:
		var r models.StockSnapshot
		err := json.Unmarshal(msg, &r)
		return r, err
	}
	return nil, fmt.Errorf("no parquet schema for topic %s", topic)
}

func GetSchema(topic string) (interface{}, error) {
	switch topic {
	case models.TopicDepotDispatch:
		return new(models.DepotDispatch), nil
	case models.TopicOutletDispatch:
		return new(models.OutletDispatch), nil
	case models.TopicStockLevels:
		return new(models.StockSnapshot), nil
	}
	return nil, fmt.Errorf("no parquet schema for topic %s", topic)
}

func (p *ParquetOutput) createNewWriter(partitionPath, topic string) (*writer.ParquetWriter, error) {
	var fw source.ParquetFile
	if p.cloudWriterFactory != nil {
		objectPath := path.Join(p.folder, partitionPath, "data.parquet")
		cloudWriter, err := p.cloudWriterFactory.NewWriter(p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = NewCloudParquetFile(cloudWriter)
	} else {
		fullPath := filepath.Join(p.basePath, p.folder, filepath.FromSlash(partitionPath))
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return nil, err
		}
		var err error
		fw, err = local.NewLocalFileWriter(filepath.Join(fullPath, "data.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	schema, err := GetSchema(topic)
	if err != nil {
		return nil, err
	}

	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}

	p.writers[partitionPath] = pw
	p.files[partitionPath] = fw
	return pw, nil
}

func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for key, pw := range p.writers {
		if err := pw.WriteStop(); err != nil {
			lastErr = err
			log.Printf("Error closing writer for key %s: %v", key, err)
		}
		if f, ok := p.files[key]; ok {
			if err := f.Close(); err != nil {
				lastErr = err
				log.Printf("Error closing file for key %s: %v", key, err)
			}
		}
	}
	p.writers = make(map[string]*writer.ParquetWriter)
	p.files = make(map[string]source.ParquetFile)
	return lastErr
}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	if _, err := fmt.Fprintf(c.w, "[%s] %s\n", topic, msg); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error {
	return nil
}

func (m *MultiOutput) WriteMessage(topic string, msg []byte) error {
	for _, o := range m.outputs {
		if err := o.WriteMessage(topic, msg); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiOutput) Close() error {
	var lastErr error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (s *Simulator) determineOutputDestination(ctx context.Context) (OutputDestination, error) {
	var outputs []OutputDestination
	fail := func(err error) (OutputDestination, error) {
		for _, o := range outputs {
			_ = o.Close()
		}
		return nil, err
	}

	if s.Config.KafkaEnabled {
		producer, err := producers.NewSaramaProducer(s.Config)
		if err != nil {
			return fail(err)
		}
		outputs = append(outputs, producer)
	}

	if s.Config.Database.Enabled {
		pool, err := pgxpool.New(ctx, s.Config.Database.URL)
		if err != nil {
			return fail(fmt.Errorf("error connecting to database: %w", err))
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return fail(err)
		}
		outputs = append(outputs, output.NewPostgresOutput(ctx, postgres.NewRepositories(pool), pool.Close))
	}

	if s.Config.OutputPath != "" || s.Config.OutputDestination != "local" {
		var factory cloudwriter.CloudWriterFactory
		if s.Config.OutputDestination != "local" {
			var err error
			switch s.Config.CloudStorage.Provider {
			case "s3":
				factory, err = cloudwriter.NewS3WriterFactory(ctx, s.Config.CloudStorage.Region)
			default:
				err = fmt.Errorf("unsupported cloud storage provider: %s", s.Config.CloudStorage.Provider)
			}
			if err != nil {
				return fail(fmt.Errorf("failed to create cloud writer factory: %w", err))
			}
		}

		bucket := s.Config.CloudStorage.BucketName
		switch s.Config.OutputFormat {
		case "parquet":
			outputs = append(outputs, NewParquetOutput(s.Config.OutputPath, s.Config.OutputFolder, factory, bucket))
		case "json":
			outputs = append(outputs, NewJSONOutput(s.Config.OutputPath, s.Config.OutputFolder, factory, bucket))
		case "csv":
			outputs = append(outputs, NewCSVOutput(s.Config.OutputPath, s.Config.OutputFolder, factory, bucket))
		case "console", "":
		default:
			return fail(fmt.Errorf("unsupported output format: %s", s.Config.OutputFormat))
		}
	}

	switch len(outputs) {
	case 0:
		return NewConsoleOutput(os.Stdout), nil
	case 1:
		return outputs[0], nil
	}
	return NewMultiOutput(outputs...), nil
}
