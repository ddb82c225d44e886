package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prasenjit/go-requester/internal/config"
	"github.com/prasenjit/go-requester/internal/models"
)

const (
	documentsCollection  = "documents"
	operationsCollection = "operations"
	historyCollection    = "history"
	countersCollection   = "counters"
	historyCounterID     = "history"
)

// MongoStorage implements Storage interface on top of MongoDB.
// Operations and requests are kept as JSON because parameters are polymorphic.
type MongoStorage struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	logger  *slog.Logger
}

type documentRecord struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Checksum  string    `bson:"checksum"`
	CreatedAt time.Time `bson:"createdAt"`
	Data      string    `bson:"data"`
}

type operationRecord struct {
	ID         string `bson:"_id"`
	DocumentID string `bson:"documentId"`
	Path       string `bson:"path"`
	Method     string `bson:"method"`
	Data       string `bson:"data"`
}

type historyRecord struct {
	Key  int64  `bson:"_id"`
	URL  string `bson:"url"`
	Data string `bson:"data"`
}

type counterRecord struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// NewMongoStorage connects to MongoDB, retrying with exponential backoff, and ensures indexes
func NewMongoStorage(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*MongoStorage, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetMaxPoolSize(100)

	var client *mongo.Client
	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = 3 * timeout
	err := backoff.Retry(func() error {
		var err error
		client, err = mongo.Connect(ctx, clientOptions)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			logger.Warn("MongoDB ping failed, retrying", "uri", cfg.URI, "error", err)
			_ = client.Disconnect(context.Background())
			return err
		}
		return nil
	}, backoff.WithContext(retry, ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	m := &MongoStorage{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: timeout,
		logger:  logger,
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("MongoDB connection successful", "database", cfg.Database)
	return m, nil
}

func (m *MongoStorage) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	indexes := map[string]mongo.IndexModel{
		historyCollection:    {Keys: bson.D{{Key: "url", Value: 1}}},
		operationsCollection: {Keys: bson.D{{Key: "documentId", Value: 1}}},
		documentsCollection:  {Keys: bson.D{{Key: "checksum", Value: 1}}},
	}
	for coll, index := range indexes {
		if _, err := m.db.Collection(coll).Indexes().CreateOne(ctx, index); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", coll, err)
		}
	}
	return nil
}

func (m *MongoStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

// CreateDocument creates a new document
func (m *MongoStorage) CreateDocument(doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	ctx, cancel := m.ctx()
	defer cancel()

	_, err = m.db.Collection(documentsCollection).InsertOne(ctx, documentRecord{
		ID:        doc.ID,
		Title:     doc.Title,
		Checksum:  doc.Checksum,
		CreatedAt: doc.CreatedAt,
		Data:      string(data),
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("document with ID %s already exists", doc.ID)
	}
	return err
}

// GetDocument retrieves a document by ID
func (m *MongoStorage) GetDocument(id string) (*models.Document, error) {
	return m.findDocument(bson.M{"_id": id}, "document "+id)
}

// FindDocumentByChecksum returns the document whose content hashes to checksum
func (m *MongoStorage) FindDocumentByChecksum(checksum string) (*models.Document, error) {
	return m.findDocument(bson.M{"checksum": checksum}, "document with checksum "+checksum)
}

func (m *MongoStorage) findDocument(filter bson.M, label string) (*models.Document, error) {
	ctx, cancel := m.ctx()
	defer cancel()

	var rec documentRecord
	err := m.db.Collection(documentsCollection).FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", label, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(rec.Data), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", label, err)
	}
	return &doc, nil
}

// GetAllDocuments retrieves all documents sorted by title
func (m *MongoStorage) GetAllDocuments() ([]*models.Document, error) {
	ctx, cancel := m.ctx()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.db.Collection(documentsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []documentRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}

	docs := make([]*models.Document, 0, len(recs))
	for _, rec := range recs {
		var doc models.Document
		if err := json.Unmarshal([]byte(rec.Data), &doc); err != nil {
			m.logger.Warn("Skipping undecodable document", "id", rec.ID, "error", err)
			continue
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// DeleteDocument deletes a document
func (m *MongoStorage) DeleteDocument(id string) error {
	ctx, cancel := m.ctx()
	defer cancel()

	res, err := m.db.Collection(documentsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateOperation creates a new operation
func (m *MongoStorage) CreateOperation(op *models.Operation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return err
	}

	ctx, cancel := m.ctx()
	defer cancel()

	_, err = m.db.Collection(operationsCollection).InsertOne(ctx, operationRecord{
		ID:         op.ID,
		DocumentID: op.DocumentID,
		Path:       op.Path,
		Method:     op.Method,
		Data:       string(data),
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("operation with ID %s already exists", op.ID)
	}
	return err
}

// GetOperation retrieves an operation by ID
func (m *MongoStorage) GetOperation(id string) (*models.Operation, error) {
	ctx, cancel := m.ctx()
	defer cancel()

	var rec operationRecord
	err := m.db.Collection(operationsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("operation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeOperation(rec)
}

// GetOperationsByDocument retrieves all operations for a document
func (m *MongoStorage) GetOperationsByDocument(documentID string) ([]*models.Operation, error) {
	ctx, cancel := m.ctx()
	defer cancel()

	cursor, err := m.db.Collection(operationsCollection).Find(ctx, bson.M{"documentId": documentID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []operationRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}

	ops := make([]*models.Operation, 0, len(recs))
	for _, rec := range recs {
		op, err := decodeOperation(rec)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	sortOperations(ops)
	return ops, nil
}

func decodeOperation(rec operationRecord) (*models.Operation, error) {
	var op models.Operation
	if err := json.Unmarshal([]byte(rec.Data), &op); err != nil {
		return nil, fmt.Errorf("failed to decode operation %s: %w", rec.ID, err)
	}
	return &op, nil
}

// DeleteOperationsByDocument deletes all operations for a document
func (m *MongoStorage) DeleteOperationsByDocument(documentID string) error {
	ctx, cancel := m.ctx()
	defer cancel()

	_, err := m.db.Collection(operationsCollection).DeleteMany(ctx, bson.M{"documentId": documentID})
	return err
}

// AddEntry stores req under the next value of the history counter
func (m *MongoStorage) AddEntry(req *models.RequestData) (*models.HistoryEntry, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := m.ctx()
	defer cancel()

	var counter counterRecord
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err = m.db.Collection(countersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": historyCounterID}, bson.M{"$inc": bson.M{"seq": 1}}, opts).
		Decode(&counter)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate history key: %w", err)
	}

	rec := historyRecord{Key: counter.Seq, URL: req.URL, Data: string(data)}
	if _, err := m.db.Collection(historyCollection).InsertOne(ctx, rec); err != nil {
		return nil, err
	}

	return &models.HistoryEntry{Key: counter.Seq, Request: req}, nil
}

// GetEntry retrieves a history entry by key
func (m *MongoStorage) GetEntry(key int64) (*models.HistoryEntry, error) {
	ctx, cancel := m.ctx()
	defer cancel()

	var rec historyRecord
	err := m.db.Collection(historyCollection).FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("history entry %d: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeEntry(rec)
}

// GetAllEntries retrieves all history entries
func (m *MongoStorage) GetAllEntries() ([]*models.HistoryEntry, error) {
	return m.findEntries(bson.M{})
}

// GetEntriesByURL retrieves the history entries recorded for a request path
func (m *MongoStorage) GetEntriesByURL(url string) ([]*models.HistoryEntry, error) {
	return m.findEntries(bson.M{"url": url})
}

func (m *MongoStorage) findEntries(filter bson.M) ([]*models.HistoryEntry, error) {
	ctx, cancel := m.ctx()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.db.Collection(historyCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []historyRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}

	entries := make([]*models.HistoryEntry, 0, len(recs))
	for _, rec := range recs {
		entry, err := decodeEntry(rec)
		if err != nil {
			m.logger.Warn("Skipping undecodable history entry", "key", rec.Key, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeEntry(rec historyRecord) (*models.HistoryEntry, error) {
	var req models.RequestData
	if err := json.Unmarshal([]byte(rec.Data), &req); err != nil {
		return nil, fmt.Errorf("failed to decode history entry %d: %w", rec.Key, err)
	}
	return &models.HistoryEntry{Key: rec.Key, Request: &req}, nil
}

// DeleteEntry deletes a history entry
func (m *MongoStorage) DeleteEntry(key int64) error {
	ctx, cancel := m.ctx()
	defer cancel()

	res, err := m.db.Collection(historyCollection).DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("history entry %d: %w", key, ErrNotFound)
	}
	return nil
}

// ClearHistory removes every history entry. The key counter is kept.
func (m *MongoStorage) ClearHistory() error {
	ctx, cancel := m.ctx()
	defer cancel()

	_, err := m.db.Collection(historyCollection).DeleteMany(ctx, bson.M{})
	return err
}

// Close disconnects from MongoDB
func (m *MongoStorage) Close() error {
	ctx, cancel := m.ctx()
	defer cancel()
	return m.client.Disconnect(ctx)
}
