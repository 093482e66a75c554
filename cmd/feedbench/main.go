package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/aiverse-api/config"
	"github.com/d60-Lab/aiverse-api/internal/dbstats"
	"github.com/d60-Lab/aiverse-api/internal/model"
	"github.com/d60-Lab/aiverse-api/internal/repository"
	"github.com/d60-Lab/aiverse-api/internal/service"
	"github.com/d60-Lab/aiverse-api/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

type result struct {
	name    string
	lat     []time.Duration
	queries int64
}

func (r result) print(rounds int) {
	var sum time.Duration
	for _, d := range r.lat {
		sum += d
	}
	fmt.Printf("%-8s avg=%v p95=%v p99=%v queries/page=%.1f\n",
		r.name, sum/time.Duration(len(r.lat)), pct(r.lat, 0.95), pct(r.lat, 0.99), float64(r.queries)/float64(rounds))
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	mustDo(database.Migrate(db))
	counter := must(dbstats.Attach(db))

	// params
	USERS := envInt("USERS", 500)
	POSTS := envInt("POSTS", 2000)
	LIKES := envInt("LIKES", 20000)
	COMMENTS := envInt("COMMENTS", 5000)
	LIMIT := envInt("LIMIT", 20)
	ROUNDS := envInt("ROUNDS", 200)

	// 清空表，保证可重复
	for _, table := range []string{"likes", "comments", "posts", "users"} {
		mustDo(db.Exec("DELETE FROM " + table).Error)
	}

	users := make([]model.User, USERS)
	for i := range users {
		id := uuid.New().String()
		users[i] = model.User{Username: "u" + id[:8], Email: id[:8] + "@example.com", HashedPassword: "x"}
	}
	mustDo(db.CreateInBatches(&users, 500).Error)

	base := time.Now().Add(-time.Duration(POSTS) * time.Minute)
	posts := make([]model.Post, POSTS)
	for i := range posts {
		posts[i] = model.Post{
			Title:     fmt.Sprintf("post %d", i),
			AuthorID:  users[rand.Intn(USERS)].ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	mustDo(db.Omit("Author").CreateInBatches(&posts, 500).Error)

	likeRepo := repository.NewLikeRepository(db)
	for i := 0; i < LIKES; i++ {
		_ = must(likeRepo.Create(ctx, users[rand.Intn(USERS)].ID, posts[rand.Intn(POSTS)].ID))
	}
	comments := make([]model.Comment, COMMENTS)
	for i := range comments {
		comments[i] = model.Comment{Content: "c", UserID: users[rand.Intn(USERS)].ID, PostID: posts[rand.Intn(POSTS)].ID}
	}
	mustDo(db.Omit("User").CreateInBatches(&comments, 500).Error)

	postRepo := repository.NewPostRepository(db)
	agg := service.NewAggregator(likeRepo, repository.NewCommentRepository(db))

	run := func(name string, enrich func(context.Context, []*model.Post, *uint) ([]*model.EnrichedPost, error)) result {
		r := result{name: name, lat: make([]time.Duration, 0, ROUNDS)}
		for i := 0; i < ROUNDS; i++ {
			page := must(postRepo.List(ctx, rand.Intn(POSTS/LIMIT+1)*LIMIT%POSTS, LIMIT))
			viewer := users[rand.Intn(USERS)].ID
			counter.Reset()
			st := time.Now()
			_ = must(enrich(ctx, page, &viewer))
			r.lat = append(r.lat, time.Since(st))
			r.queries += counter.Queries()
		}
		return r
	}

	naive := run("naive", agg.EnrichNaive)
	batched := run("batched", agg.Enrich)

	fmt.Printf("driver=%s USERS=%d POSTS=%d LIKES=%d COMMENTS=%d LIMIT=%d ROUNDS=%d\n",
		cfg.Database.Driver, USERS, POSTS, LIKES, COMMENTS, LIMIT, ROUNDS)
	naive.print(ROUNDS)
	batched.print(ROUNDS)
}
