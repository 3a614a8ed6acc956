package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/rushteam/wardrobe/catalog"
	"github.com/rushteam/wardrobe/engine"
	"github.com/rushteam/wardrobe/pkg/logging"
	"github.com/rushteam/wardrobe/settings"
)

func runRecommend(args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	liked := fs.String("liked", "", "comma-separated liked item ids")
	serendipity := fs.Float64("serendipity", 0.5, "0 = safe picks, 1 = adventurous picks")
	limit := fs.Int("limit", 10, "maximum number of recommendations")
	filter := fs.String("filter", "", `CEL attribute filter, e.g. item.gender == "Women"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(*liked)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := newApp(ctx, cf)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.engine.Recommend(ctx, engine.RecommendRequest{
		LikedIDs:    ids,
		Serendipity: *serendipity,
		Limit:       *limit,
		Filter:      *filter,
	})
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, res)
}

func runCapsule(args []string) error {
	fs := flag.NewFlagSet("capsule", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	liked := fs.String("liked", "", "comma-separated liked item ids")
	budget := fs.Int("budget", 10, "maximum number of items in the capsule")
	filter := fs.String("filter", "", "CEL attribute filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(*liked)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := newApp(ctx, cf)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.engine.BuildCapsule(ctx, engine.CapsuleRequest{LikedIDs: ids, Budget: *budget, Filter: *filter})
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, res)
}

func runInsights(args []string) error {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	liked := fs.String("liked", "", "comma-separated liked item ids")
	disliked := fs.String("disliked", "", "comma-separated disliked item ids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	likedIDs, err := parseIDs(*liked)
	if err != nil {
		return err
	}
	dislikedIDs, err := parseIDs(*disliked)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := newApp(ctx, cf)
	if err != nil {
		return err
	}
	defer a.close()

	in, err := a.engine.Insights(ctx, likedIDs, dislikedIDs)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, in)
}

func runQuiz(args []string) error {
	fs := flag.NewFlagSet("quiz", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	count := fs.Int("count", 20, "number of items")
	seed := fs.Uint64("seed", 0, "random seed, 0 = time based")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := newApp(ctx, cf)
	if err != nil {
		return err
	}
	defer a.close()

	items, err := a.engine.QuizItems(ctx, *count, *seed)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, items)
}

func runItem(args []string) error {
	fs := flag.NewFlagSet("item", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: wardrobe item [flags] <id>")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", fs.Arg(0), err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := newApp(ctx, cf)
	if err != nil {
		return err
	}
	defer a.close()

	it, err := a.engine.Item(id)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, it)
}

// runImport 把目录文件（可选 Feast 补全后）写入 redis，供 catalog.source=redis 使用。
func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", "", "settings file (YAML)")
	file := fs.String("file", "", "catalog file to import (JSON array or JSON Lines)")
	prefix := fs.String("prefix", "", "redis key prefix, overrides redis.prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := settings.Load(*configPath)
	if err != nil {
		return err
	}
	logging.Init(s.Logging)
	if *file == "" {
		*file = s.Catalog.Path
	}
	if *prefix == "" {
		*prefix = s.Redis.Prefix
	}

	ctx, cancel := signalContext()
	defer cancel()

	items, err := catalog.ReadFile(*file)
	if err != nil {
		return err
	}
	if s.Feast.Endpoint != "" {
		if err := enrich(ctx, s.Feast, items); err != nil {
			return err
		}
	}
	// 写入前校验一次：重复 ID 等问题在导入时暴露
	if _, err := catalog.New(items, catalogOptions(s.Catalog)...); err != nil {
		return err
	}

	rs, err := openRedis(ctx, s.Redis)
	if err != nil {
		return err
	}
	defer rs.Close()

	n, err := catalog.SaveToStore(ctx, rs, *prefix, items)
	if err != nil {
		return err
	}
	logging.Info().Int("items", n).Str("prefix", *prefix).Str("addr", s.Redis.Addr).Msg("catalog imported")
	return nil
}

func runStream(args []string) error {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	watch := fs.Bool("watch", false, "reload the catalog file when it changes (overrides catalog.watch)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := newApp(ctx, cf)
	if err != nil {
		return err
	}
	defer a.close()

	if (*watch || a.settings.Catalog.Watch) && a.settings.Catalog.Source == settings.SourceFile {
		go func() {
			if err := a.holder.Watch(ctx, a.settings.Catalog.Path, catalogLoader(a.settings)); err != nil && ctx.Err() == nil {
				logging.Error().Err(err).Msg("catalog watch stopped")
			}
		}()
	}
	return serveStream(ctx, a.engine, os.Stdin, os.Stdout)
}

