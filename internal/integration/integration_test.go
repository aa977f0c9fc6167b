package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"accreditation-questionnaire-service/internal/app"
	"accreditation-questionnaire-service/internal/domain"
	pgstore "accreditation-questionnaire-service/internal/infra/postgres"
	pgmigrations "accreditation-questionnaire-service/internal/infra/postgres/migrations"
	infraredis "accreditation-questionnaire-service/internal/infra/redis"
	"accreditation-questionnaire-service/internal/schema"
	"accreditation-questionnaire-service/internal/schema/schematest"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestSubmitDraftEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateAndOpen(t, ctx, pgURL)
	defer db.Close()
	seedDraft(t, ctx, db, "draft-1", schematest.ValidDocument())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	drafts := infraredis.NewDraftRepository(redisClient, pgstore.NewDraftLoader(pool), 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuestionnaireService(sessionStore, drafts, pgstore.NewSubmissionSink(db), schema.Default())

	view, err := service.Start(ctx, "draft-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Completed.Count() != domain.SectionCount-1 {
		t.Fatalf("expected draft completion restored, got %v", view.Completed)
	}
	if _, err := service.JumpTo(ctx, view.SessionID, schema.SectionTransparency); err != nil {
		t.Fatalf("jump: %v", err)
	}
	final, err := service.Next(ctx, view.SessionID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !final.Submitted || final.SubmissionID == "" {
		t.Fatalf("expected submitted view, got %+v", final)
	}

	var issn, title string
	var payload []byte
	err = pool.QueryRow(ctx,
		`SELECT issn, journal_title, payload FROM questionnaire_submissions WHERE id=$1`, final.SubmissionID,
	).Scan(&issn, &title, &payload)
	if err != nil {
		t.Fatalf("query submission: %v", err)
	}
	if issn != "1234-567X" || title != "Journal of Applied Hydrology" {
		t.Fatalf("unexpected row: issn=%s title=%s", issn, title)
	}
	var stored domain.Document
	if err := json.Unmarshal(payload, &stored); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if stored["oa_model"] != "diamond" || stored["apc_amount"] != nil {
		t.Fatalf("unexpected stored payload: %v", stored)
	}

	n, err := redisClient.Exists(ctx, "draft:draft-1:answers").Result()
	if err != nil || n != 1 {
		t.Fatalf("expected draft cached in redis, got n=%d err=%v", n, err)
	}
}

func TestMissingDraftEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db := migrateAndOpen(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	_, err = pgstore.NewDraftLoader(pool).LoadDraft(ctx, "nope")
	if !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected draft not found, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "questionnaire", "POSTGRES_PASSWORD": "questionnairepass", "POSTGRES_DB": "accreditation"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://questionnaire:questionnairepass@%s:%s/accreditation?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateAndOpen(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedDraft stores answers with every section but the last marked complete.
func seedDraft(t *testing.T, ctx context.Context, db *bun.DB, id string, answers domain.Document) {
	t.Helper()
	var completed domain.Completion
	for i := 0; i < domain.SectionCount-1; i++ {
		completed[i] = true
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal answers: %v", err)
	}
	completedJSON, err := json.Marshal(completed)
	if err != nil {
		t.Fatalf("marshal completion: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO questionnaire_drafts (id, answers, completed) VALUES (?, ?::jsonb, ?::jsonb) ON CONFLICT (id) DO UPDATE SET answers=EXCLUDED.answers, completed=EXCLUDED.completed`,
		id, string(answersJSON), string(completedJSON)); err != nil {
		t.Fatalf("insert draft: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
