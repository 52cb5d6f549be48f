// This file orchestrates the pdf-to-tables service, initializing and running
// the NATS worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/tabula-client/internal/extractor"
	"github.com/book-expert/tabula-client/tabula"
)

// Config represents the overall configuration structure for the
// pdf-to-tables-service.
type Config struct {
	NATS       NATSConfig       `toml:"nats"`
	Extraction ExtractionConfig `toml:"extraction"`
	Paths      PathsConfig      `toml:"paths"`
}

// PathsConfig holds common path configurations.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// NATSConfig holds NATS-specific configuration for the pdf-to-tables-service.
type NATSConfig struct {
	URL                     string `toml:"url"`
	PDFStreamName           string `toml:"pdf_stream_name"`
	PDFConsumerName         string `toml:"pdf_consumer_name"`
	PDFCreatedSubject       string `toml:"pdf_created_subject"`
	PDFObjectStoreBucket    string `toml:"pdf_object_store_bucket"`
	TablesStreamName        string `toml:"tables_stream_name"`
	TablesExtractedSubject  string `toml:"tables_extracted_subject"`
	TablesObjectStoreBucket string `toml:"tables_object_store_bucket"`
}

// ExtractionConfig selects how tables are extracted and written.
type ExtractionConfig struct {
	Format         string   `toml:"format"`
	Mode           string   `toml:"mode"`
	Pages          string   `toml:"pages"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	JarPath        string   `toml:"jar_path"`
	JavaOptions    []string `toml:"java_options"`
}

// job represents the context for processing a single message.
type job struct {
	msg          jetstream.Msg
	jetStream    jetstream.JetStream
	pdfStore     jetstream.ObjectStore
	tablesStore  jetstream.ObjectStore
	cfg          *Config
	appLogger    *logger.Logger
	processor    *extractor.Processor
	event        *events.PDFCreatedEvent
	header       *events.EventHeader
	workDir      string
	localPDFPath string
}

const (
	// envConfigURL names the environment variable holding the TOML config URL.
	envConfigURL = "TABULA_SERVICE_CONFIG_URL"

	natsFetchTimeout = 5 * time.Second
	ackWait          = 30 * time.Second
)

var errConfigURLNotSet = errors.New(
	envConfigURL + " environment variable is not set",
)

// main is the entry point of the application.
func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runErr := run(ctx)
	if runErr != nil {
		log.Printf("Fatal application error: %v", runErr)
		os.Exit(1)
	}

	log.Println("Application shut down gracefully.")
}

// run initializes all components and starts the message processing loop.
func run(ctx context.Context) error {
	cfg, appLogger, setupErr := setupConfigAndLogger()
	if setupErr != nil {
		return setupErr
	}
	defer func() {
		if closeErr := appLogger.Close(); closeErr != nil {
			log.Printf("Warning: failed to close app logger: %v", closeErr)
		}
	}()

	processor, processorErr := newProcessor(cfg, appLogger)
	if processorErr != nil {
		return processorErr
	}

	natsConnection, connErr := nats.Connect(cfg.NATS.URL)
	if connErr != nil {
		return fmt.Errorf("failed to connect to NATS: %w", connErr)
	}
	defer natsConnection.Close()
	appLogger.Info("Connected to NATS server at %s", natsConnection.ConnectedUrl())

	jetStream, jsErr := jetstream.New(natsConnection)
	if jsErr != nil {
		return fmt.Errorf("failed to create JetStream context: %w", jsErr)
	}

	jsSetupErr := setupJetStream(ctx, jetStream, cfg)
	if jsSetupErr != nil {
		return fmt.Errorf("failed to set up JetStream resources: %w", jsSetupErr)
	}

	consumer, consumerErr := jetStream.Consumer(
		ctx,
		cfg.NATS.PDFStreamName,
		cfg.NATS.PDFConsumerName,
	)
	if consumerErr != nil {
		return fmt.Errorf("failed to get consumer: %w", consumerErr)
	}

	appLogger.Info(
		"Worker is running, listening for jobs on '%s'...",
		cfg.NATS.PDFCreatedSubject,
	)

	return processMessages(ctx, consumer, jetStream, processor, cfg, appLogger)
}

// setupConfigAndLogger loads configuration and sets up the main application logger.
func setupConfigAndLogger() (*Config, *logger.Logger, error) {
	configURL := os.Getenv(envConfigURL)
	if configURL == "" {
		return nil, nil, errConfigURLNotSet
	}

	var cfg Config

	tempLogger, tempLoggerErr := logger.New(os.TempDir(), "pdf-to-tables-bootstrap.log")
	if tempLoggerErr != nil {
		return nil, nil, fmt.Errorf(
			"failed to create bootstrap logger: %w",
			tempLoggerErr,
		)
	}
	defer func() {
		if closeErr := tempLogger.Close(); closeErr != nil {
			log.Printf("Warning: failed to close temp logger: %v", closeErr)
		}
	}()

	loadErr := configurator.LoadFromURL(configURL, &cfg, tempLogger)
	if loadErr != nil {
		return nil, nil, fmt.Errorf(
			"failed to load configuration from URL %s: %w",
			configURL,
			loadErr,
		)
	}
	log.Printf("Configuration loaded from %s", configURL)

	appLogger, loggerErr := logger.New(cfg.Paths.BaseLogsDir, "pdf-to-tables-service.log")
	if loggerErr != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", loggerErr)
	}

	return &cfg, appLogger, nil
}

// newProcessor validates the extraction settings and builds the shared
// processor used by every job.
func newProcessor(cfg *Config, appLogger *logger.Logger) (*extractor.Processor, error) {
	var format tabula.Format

	if cfg.Extraction.Format != "" {
		parsed, parseErr := tabula.ParseFormat(cfg.Extraction.Format)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid extraction format: %w", parseErr)
		}

		format = parsed
	}

	opts := &extractor.Options{
		JavaBin:     "",
		JarPath:     cfg.Extraction.JarPath,
		JavaOptions: cfg.Extraction.JavaOptions,
		Format:      format,
		Mode:        cfg.Extraction.Mode,
		Pages:       cfg.Extraction.Pages,
		Timeout:     time.Duration(cfg.Extraction.TimeoutSeconds) * time.Second,
	}

	return extractor.NewProcessor(opts, appLogger), nil
}

// setupJetStream ensures all required NATS streams and object stores exist.
func setupJetStream(
	ctx context.Context,
	jetStream jetstream.JetStream,
	cfg *Config,
) error {
	streamCfg := newStreamConfig(cfg.NATS.PDFStreamName, cfg.NATS.PDFCreatedSubject)

	_, streamErr := jetStream.CreateStream(ctx, *streamCfg)
	if streamErr != nil && !errors.Is(streamErr, jetstream.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create PDF stream: %w", streamErr)
	}

	consumerCfg := newConsumerConfig(cfg)

	stream, streamErr := jetStream.Stream(ctx, cfg.NATS.PDFStreamName)
	if streamErr != nil {
		return fmt.Errorf("failed to get PDF stream handle: %w", streamErr)
	}

	_, consumerErr := stream.CreateOrUpdateConsumer(ctx, *consumerCfg)
	if consumerErr != nil {
		return fmt.Errorf("failed to create PDF consumer: %w", consumerErr)
	}

	tablesStreamCfg := newStreamConfig(
		cfg.NATS.TablesStreamName,
		cfg.NATS.TablesExtractedSubject,
	)

	_, tablesStreamErr := jetStream.CreateStream(ctx, *tablesStreamCfg)
	if tablesStreamErr != nil &&
		!errors.Is(tablesStreamErr, jetstream.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create tables stream: %w", tablesStreamErr)
	}

	buckets := []string{
		cfg.NATS.PDFObjectStoreBucket,
		cfg.NATS.TablesObjectStoreBucket,
	}
	for _, bucket := range buckets {
		objStoreCfg := newObjectStoreConfig(bucket)

		_, objStoreErr := jetStream.CreateObjectStore(ctx, *objStoreCfg)
		if objStoreErr != nil && !errors.Is(objStoreErr, jetstream.ErrBucketExists) {
			return fmt.Errorf(
				"failed to create object store '%s': %w",
				bucket,
				objStoreErr,
			)
		}
	}

	return nil
}

func newStreamConfig(name, subject string) *jetstream.StreamConfig {
	return &jetstream.StreamConfig{
		Name:                   name,
		Description:            "",
		Subjects:               []string{subject},
		Retention:              jetstream.WorkQueuePolicy,
		MaxConsumers:           -1,
		MaxMsgs:                -1,
		MaxBytes:               -1,
		Discard:                jetstream.DiscardOld,
		DiscardNewPerSubject:   false,
		MaxAge:                 0,
		MaxMsgsPerSubject:      -1,
		MaxMsgSize:             -1,
		Storage:                jetstream.FileStorage,
		Replicas:               1,
		NoAck:                  false,
		Duplicates:             0,
		Placement:              nil,
		Mirror:                 nil,
		Sources:                nil,
		Sealed:                 false,
		DenyDelete:             false,
		DenyPurge:              false,
		AllowRollup:            false,
		Compression:            jetstream.NoCompression,
		FirstSeq:               0,
		SubjectTransform:       nil,
		RePublish:              nil,
		AllowDirect:            false,
		MirrorDirect:           false,
		ConsumerLimits:         jetstream.StreamConsumerLimits{},
		Metadata:               nil,
		Template:               "",
		AllowMsgTTL:            false,
		SubjectDeleteMarkerTTL: 0,
	}
}

func newConsumerConfig(cfg *Config) *jetstream.ConsumerConfig {
	return &jetstream.ConsumerConfig{
		Durable:            cfg.NATS.PDFConsumerName,
		Name:               "",
		Description:        "",
		FilterSubject:      cfg.NATS.PDFCreatedSubject,
		AckPolicy:          jetstream.AckExplicitPolicy,
		AckWait:            ackWait,
		MaxDeliver:         -1,
		DeliverPolicy:      jetstream.DeliverAllPolicy,
		OptStartSeq:        0,
		OptStartTime:       nil,
		BackOff:            nil,
		ReplayPolicy:       jetstream.ReplayInstantPolicy,
		RateLimit:          0,
		SampleFrequency:    "",
		MaxWaiting:         0,
		MaxAckPending:      -1,
		HeadersOnly:        false,
		MaxRequestBatch:    0,
		MaxRequestExpires:  0,
		MaxRequestMaxBytes: 0,
		InactiveThreshold:  0,
		Replicas:           0,
		MemoryStorage:      false,
		FilterSubjects:     nil,
		Metadata:           nil,
		PauseUntil:         nil,
		PriorityPolicy:     0,
		PinnedTTL:          0,
		PriorityGroups:     nil,
		DeliverSubject:     "",
		DeliverGroup:       "",
		FlowControl:        false,
		IdleHeartbeat:      0,
	}
}

func newObjectStoreConfig(bucket string) *jetstream.ObjectStoreConfig {
	return &jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "",
		TTL:         0,
		MaxBytes:    -1,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Compression: false,
		Metadata:    nil,
	}
}

// processMessages implements the core worker loop.
func processMessages(
	ctx context.Context,
	consumer jetstream.Consumer,
	jetStream jetstream.JetStream,
	processor *extractor.Processor,
	cfg *Config,
	appLogger *logger.Logger,
) error {
	pdfStore, pdfStoreErr := jetStream.ObjectStore(ctx, cfg.NATS.PDFObjectStoreBucket)
	if pdfStoreErr != nil {
		return fmt.Errorf("failed to bind to PDF object store: %w", pdfStoreErr)
	}

	tablesStore, tablesStoreErr := jetStream.ObjectStore(
		ctx,
		cfg.NATS.TablesObjectStoreBucket,
	)
	if tablesStoreErr != nil {
		return fmt.Errorf(
			"failed to bind to tables object store: %w",
			tablesStoreErr,
		)
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("context error in message loop: %w", ctxErr)
		}

		batch, fetchErr := consumer.Fetch(1, jetstream.FetchMaxWait(natsFetchTimeout))
		if fetchErr != nil {
			if errors.Is(fetchErr, context.Canceled) ||
				errors.Is(fetchErr, nats.ErrTimeout) {
				continue
			}

			appLogger.Error("Error fetching messages: %v", fetchErr)

			continue
		}

		for msg := range batch.Messages() {
			handleMessage(ctx, msg, jetStream, pdfStore, tablesStore, processor, cfg, appLogger)
		}

		if batchErr := batch.Error(); batchErr != nil {
			appLogger.Error("Error during message batch processing: %v", batchErr)
		}
	}
}

// handleMessage processes a single message.
func handleMessage(
	ctx context.Context, msg jetstream.Msg, jetStream jetstream.JetStream,
	pdfStore, tablesStore jetstream.ObjectStore, processor *extractor.Processor,
	cfg *Config, appLogger *logger.Logger,
) {
	job, jobErr := newJob(msg, jetStream, pdfStore, tablesStore, processor, cfg, appLogger)
	if jobErr != nil {
		appLogger.Error("Failed to create job: %v", jobErr)

		return
	}

	job.run(ctx)
}

// newJob creates a new job handler.
func newJob(
	msg jetstream.Msg, jetStream jetstream.JetStream,
	pdfStore, tablesStore jetstream.ObjectStore, processor *extractor.Processor,
	cfg *Config, appLogger *logger.Logger,
) (*job, error) {
	event, unmarshalErr := unmarshalEvent(msg)
	if unmarshalErr != nil {
		return nil, unmarshalErr
	}

	return &job{
		msg:          msg,
		jetStream:    jetStream,
		pdfStore:     pdfStore,
		tablesStore:  tablesStore,
		cfg:          cfg,
		appLogger:    appLogger,
		processor:    processor,
		event:        event,
		header:       &event.Header,
		workDir:      "", // Will be set by setupWorkDir
		localPDFPath: "", // Will be set by setupWorkDir
	}, nil
}

// unmarshalEvent unmarshals the PDFCreatedEvent from a message.
func unmarshalEvent(msg jetstream.Msg) (*events.PDFCreatedEvent, error) {
	var event events.PDFCreatedEvent

	err := json.Unmarshal(msg.Data(), &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal PDFCreatedEvent: %w", err)
	}

	return &event, nil
}

// run executes the full lifecycle of a job.
func (j *job) run(ctx context.Context) {
	j.appLogger.Info(
		"Received job for WorkflowID [%s]: processing PDF key '%s'",
		j.header.WorkflowID,
		j.event.PDFKey,
	)

	if progErr := j.msg.InProgress(); progErr != nil {
		j.appLogger.Warn("Failed to send InProgress update: %v", progErr)
	}

	dirErr := j.setupWorkDir()
	if dirErr != nil {
		j.appLogger.Error(
			"Error setting up work directory for job [%s]: %v",
			j.header.WorkflowID,
			dirErr,
		)
		j.nak(dirErr)

		return
	}
	defer j.cleanupWorkDir()

	if downloadErr := j.downloadPDF(ctx); downloadErr != nil {
		j.appLogger.Error(
			"Error downloading PDF for job [%s]: %v",
			j.header.WorkflowID,
			downloadErr,
		)
		j.term(downloadErr)

		return
	}

	result, processErr := j.processPDF(ctx)
	if processErr != nil {
		j.appLogger.Error(
			"Error processing PDF for job [%s]: %v",
			j.header.WorkflowID,
			processErr,
		)
		j.nak(processErr)

		return
	}

	if publishErr := j.publishTables(ctx, result); publishErr != nil {
		j.appLogger.Error(
			"Error publishing tables for job [%s]: %v",
			j.header.WorkflowID,
			publishErr,
		)
		j.nak(publishErr)

		return
	}

	j.ack()
}

func (j *job) setupWorkDir() error {
	workDir, err := os.MkdirTemp("", fmt.Sprintf("pdf-%s-", j.header.WorkflowID))
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	j.workDir = workDir
	j.localPDFPath = filepath.Join(workDir, j.event.PDFKey)

	return nil
}

func (j *job) cleanupWorkDir() {
	if err := os.RemoveAll(j.workDir); err != nil {
		j.appLogger.Warn("Failed to remove temp directory '%s': %v", j.workDir, err)
	}
}

func (j *job) downloadPDF(ctx context.Context) error {
	err := j.pdfStore.GetFile(ctx, j.event.PDFKey, j.localPDFPath)
	if err != nil {
		return fmt.Errorf(
			"failed to get PDF '%s' from object store: %w",
			j.event.PDFKey,
			err,
		)
	}

	return nil
}

// processPDF extracts the tables of the downloaded PDF into the work directory.
func (j *job) processPDF(ctx context.Context) (*extractor.Result, error) {
	result, processErr := j.processor.ProcessOnePDF(ctx, j.localPDFPath, j.workDir)
	if processErr != nil {
		return nil, fmt.Errorf("failed to process PDF: %w", processErr)
	}

	j.appLogger.Info(
		"Job [%s]: Extracted %d table(s) from %d page(s).",
		j.header.WorkflowID,
		result.TableCount,
		result.PageCount,
	)

	return result, nil
}

// publishTables uploads the artifact to the object store and publishes the
// TablesExtractedEvent.
func (j *job) publishTables(ctx context.Context, result *extractor.Result) error {
	objectName := fmt.Sprintf(
		"%s/%s/%s",
		j.header.TenantID,
		j.header.WorkflowID,
		extractor.ArtifactName(result.Format),
	)

	uploadErr := uploadFileToObjectStore(
		ctx,
		j.tablesStore,
		objectName,
		result.TablesPath,
	)
	if uploadErr != nil {
		return fmt.Errorf("failed to upload '%s': %w", objectName, uploadErr)
	}

	j.appLogger.Info("Job [%s]: Uploaded '%s'", j.header.WorkflowID, objectName)

	tablesEvent := extractor.NewTablesExtractedEvent(
		*j.header,
		j.event.PDFKey,
		objectName,
		result,
	)

	eventJSON, marshalErr := json.Marshal(tablesEvent)
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal TablesExtractedEvent: %w", marshalErr)
	}

	_, pubErr := j.jetStream.Publish(ctx, j.cfg.NATS.TablesExtractedSubject, eventJSON)
	if pubErr != nil {
		return fmt.Errorf("failed to publish TablesExtractedEvent: %w", pubErr)
	}

	j.appLogger.Info("Job [%s]: Published event for '%s'", j.header.WorkflowID, objectName)

	return nil
}

func (j *job) ack() {
	if err := j.msg.Ack(); err != nil {
		j.appLogger.Error(
			"Job [%s]: Failed to acknowledge message: %v",
			j.header.WorkflowID,
			err,
		)
	} else {
		j.appLogger.Success(
			"Job [%s]: Processing complete. Acknowledged.",
			j.header.WorkflowID,
		)
	}
}

func (j *job) nak(reason error) {
	j.appLogger.Error("NAK'ing message for job [%s]: %v", j.header.WorkflowID, reason)

	if err := j.msg.Nak(); err != nil {
		j.appLogger.Error("Failed to NAK message: %v", err)
	}
}

func (j *job) term(reason error) {
	j.appLogger.Error(
		"Terminating message for job [%s]: %v",
		j.header.WorkflowID,
		reason,
	)

	if err := j.msg.Term(); err != nil {
		j.appLogger.Error("Failed to TERM message: %v", err)
	}
}

func uploadFileToObjectStore(
	ctx context.Context,
	store jetstream.ObjectStore,
	objectName, filePath string,
) error {
	file, openErr := os.Open(filePath)
	if openErr != nil {
		return fmt.Errorf("failed to open file for upload: %w", openErr)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close file '%s': %v", filePath, closeErr)
		}
	}()

	meta := jetstream.ObjectMeta{
		Name:        objectName,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
	}

	_, putErr := store.Put(ctx, meta, file)
	if putErr != nil {
		return fmt.Errorf("failed to put file in object store: %w", putErr)
	}

	return nil
}
