package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-editor/internal/api"
	"github.com/annel0/voxel-editor/internal/config"
	"github.com/annel0/voxel-editor/internal/editor"
	"github.com/annel0/voxel-editor/internal/eventbus"
	"github.com/annel0/voxel-editor/internal/layer"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/transport"
	"github.com/annel0/voxel-editor/internal/worldstore"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV EDITOR_CONFIG)")
	devWorld := flag.String("dev-world", "", "сгенерировать dev-террейн для указанного мира при старте")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.Init(); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}

	logging.Info("🧱 Запуск Voxel Editor Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = config.Default()
		logging.Info("Конфигурация не задана, используются значения по умолчанию")
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	logging.Info("📡 Конфигурация: REST=%s, Redis=%s, Mongo=%s, NATS=%s",
		restPort, cfg.Redis.Addr, cfg.Mongo.URI, cfg.NATS.URL)

	// === ХРАНИЛИЩА ===

	// Слои и модели: MongoDB с fallback на память
	var layerRepo layer.Repo
	mongoRepo, err := layer.NewMongoRepo(layer.MongoConfig{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		logging.Warn("MongoDB недоступна (%v), слои хранятся в памяти", err)
		layerRepo = layer.NewMemoryRepo()
	} else {
		layerRepo = mongoRepo
		logging.Info("✅ MongoDB подключена: %s", cfg.Mongo.Database)
	}

	// Сессии и staging: Redis с fallback на память
	var sessionRepo editor.SessionRepo
	var stagingRepo editor.StagingRepo

	redisSessions, err := editor.NewRedisSessionRepo(&editor.RedisSessionConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Editor.SessionTTL(),
	})
	if err != nil {
		logging.Warn("Redis недоступен (%v), сессии хранятся в памяти", err)
		sessionRepo = editor.NewMemorySessionRepo()
		stagingRepo = editor.NewMemoryStagingRepo()
	} else {
		sessionRepo = redisSessions
		redisStaging, err := editor.NewRedisStagingRepo(&editor.RedisStagingConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Editor.StagingTTL(),
		})
		if err != nil {
			log.Fatalf("❌ Ошибка подключения staging к Redis: %v", err)
		}
		stagingRepo = redisStaging
		logging.Info("✅ Redis подключен: %s", cfg.Redis.Addr)
	}

	// Террейн и baked-чанки: BadgerDB
	store, err := worldstore.NewBadgerStore(cfg.Storage.DataPath)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия BadgerDB (%s): %v", cfg.Storage.DataPath, err)
	}
	defer store.Close()
	logging.Info("✅ BadgerDB открыта: %s", cfg.Storage.DataPath)

	// Уведомления клиентов: NATS с fallback на память
	var notifier transport.ClientNotifier
	natsOK := false
	natsNotifier, err := transport.NewNATSNotifier(&transport.NATSNotifierConfig{
		URL:           cfg.NATS.URL,
		SubjectPrefix: cfg.NATS.Subject,
	})
	if err != nil {
		logging.Warn("NATS недоступен (%v), уведомления остаются локальными", err)
		notifier = transport.NewMemoryNotifier()
	} else {
		notifier = natsNotifier
		natsOK = true
		defer natsNotifier.Close()
		logging.Info("✅ NATS подключен: %s", cfg.NATS.URL)
	}

	// Шина событий: JetStream, если NATS доступен, иначе in-memory
	var bus eventbus.EventBus
	if natsOK {
		if jsBus, jerr := eventbus.NewJetStreamBus(cfg.NATS.URL, "", 24*time.Hour); jerr == nil {
			bus = jsBus
			defer jsBus.Close()
		}
	}
	if bus == nil {
		bus = eventbus.NewMemoryBus(1024)
	}
	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("Не удалось запустить лог-подписчика шины: %v", err)
	}

	// === КОМПОНЕНТЫ РЕДАКТОРА ===
	sessions := editor.NewSessionManager(sessionRepo, layerRepo, notifier)
	resolver := editor.NewResolver(sessionRepo, stagingRepo, layerRepo, store, store, notifier)
	smoother := editor.NewSmoother(resolver, rand.New(rand.NewSource(time.Now().UnixNano())))
	dispatcher := editor.NewDispatcher(sessions, resolver, smoother, layerRepo, notifier)
	commits := editor.NewCommitPipeline(stagingRepo, layerRepo, store, store)

	// Dev-наполнение baked-тира перлин-террейном
	if *devWorld != "" {
		gen := worldstore.NewDevGenerator(cfg.Storage.DevWorldSeed)
		if err := gen.GenerateArea(context.Background(), store, *devWorld, 4); err != nil {
			logging.Error("Ошибка генерации dev-террейна: %v", err)
		} else {
			logging.Info("🌍 Dev-террейн сгенерирован для мира %s", *devWorld)
		}
	}

	// === REST API ===
	server := api.NewRestServer(api.Config{
		Port:       restPort,
		Sessions:   sessions,
		Resolver:   resolver,
		Dispatcher: dispatcher,
		Commits:    commits,
	})

	go func() {
		if err := server.Start(); err != nil {
			logging.Error("❌ Ошибка REST сервера: %v", err)
			os.Exit(1)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", restPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)

	// Ждём сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := layerRepo.Close(ctx); err != nil {
		logging.Warn("Ошибка закрытия репозитория слоёв: %v", err)
	}

	logging.Info("👋 Сервер остановлен")
}
