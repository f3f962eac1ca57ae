package layer

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig содержит настройки подключения к MongoDB для хранилища слоёв.
type MongoConfig struct {
	URI        string // например mongodb://localhost:27017
	Database   string // например voxel_editor
	Layers     string // коллекция слоёв
	Models     string // коллекция содержимого моделей
}

// MongoRepo реализует Repo на MongoDB.
type MongoRepo struct {
	client     *mongo.Client
	layers     *mongo.Collection
	models     *mongo.Collection
	ctxTimeout time.Duration
}

// NewMongoRepo устанавливает соединение и возвращает репозиторий.
func NewMongoRepo(cfg MongoConfig) (*MongoRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "voxel_editor"
	}
	if cfg.Layers == "" {
		cfg.Layers = "layers"
	}
	if cfg.Models == "" {
		cfg.Models = "layer_models"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	// ping
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)
	repo := &MongoRepo{
		client:     client,
		layers:     db.Collection(cfg.Layers),
		models:     db.Collection(cfg.Models),
		ctxTimeout: 5 * time.Second,
	}

	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (m *MongoRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()

	layerIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "world_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("world_name_unique"),
	}
	modelIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "layer_data_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("layer_data_id_unique"),
	}

	if _, err := m.layers.Indexes().CreateOne(ctx, layerIdx); err != nil {
		return err
	}
	_, err := m.models.Indexes().CreateOne(ctx, modelIdx)
	return err
}

// FindLayer ищет слой по миру и имени.
func (m *MongoRepo) FindLayer(ctx context.Context, worldID, name string) (*Layer, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var l Layer
	err := m.layers.FindOne(ctx, bson.M{"world_id": worldID, "name": name}).Decode(&l)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindLayersByWorld возвращает все слои мира.
func (m *MongoRepo) FindLayersByWorld(ctx context.Context, worldID string) ([]*Layer, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	cursor, err := m.layers.Find(ctx, bson.M{"world_id": worldID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []*Layer
	for cursor.Next(ctx) {
		var l Layer
		if err := cursor.Decode(&l); err != nil {
			return nil, err
		}
		result = append(result, &l)
	}
	return result, cursor.Err()
}

// FindLayerByDataID ищет слой по его layerDataID.
func (m *MongoRepo) FindLayerByDataID(ctx context.Context, worldID, layerDataID string) (*Layer, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var l Layer
	err := m.layers.FindOne(ctx, bson.M{"world_id": worldID, "layer_data_id": layerDataID}).Decode(&l)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindModel загружает содержимое MODEL-слоя.
func (m *MongoRepo) FindModel(ctx context.Context, layerDataID string) (*LayerModel, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var model LayerModel
	err := m.models.FindOne(ctx, bson.M{"layer_data_id": layerDataID}).Decode(&model)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// SaveModel сохраняет содержимое MODEL-слоя (upsert по layer_data_id).
func (m *MongoRepo) SaveModel(ctx context.Context, model *LayerModel) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := m.models.ReplaceOne(ctx, bson.M{"layer_data_id": model.LayerDataID}, model, opts)
	return err
}

// Close разрывает соединение с MongoDB.
func (m *MongoRepo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
