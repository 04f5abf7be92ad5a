// selfplay はボットにオフラインで自己対戦させ、結果を表示します。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/voxel"
	gamesvc "github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/voxelbot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("[SelfPlay] 設定の読み込みに失敗しました")
	}

	pieces := flag.Int("pieces", 200, "置くピースの数 (0 ならゲームオーバーまで)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "ピース列の乱数シード")
	mode := flag.String("mode", cfg.BotMode, "auto またはモード名 (survival, tetris_builder, pro_attack, zen, balanced)")
	scorer := flag.String("scorer", "adaptive", "adaptive または linear")
	width := flag.Int("width", tetris.DefaultBoardWidth, "盤面の幅")
	height := flag.Int("height", tetris.DefaultBoardHeight, "盤面の高さ")
	lookahead := flag.Bool("lookahead", cfg.BotLookahead, "次のピースを先読みする")
	parallel := flag.Bool("parallel", cfg.BotParallel, "回転ごとに並列に評価する")
	timeout := flag.Duration("timeout", cfg.SearchTimeout, "1手あたりの探索の期限 (0 なら無制限)")
	threeD := flag.Bool("3d", false, "3Dピットで自己対戦する")
	set := flag.String("set", voxel.DefaultSet, "3Dのピースセット")
	depth := flag.Int("depth", 10, "3Dピットの深さ")
	garbage := flag.Int("garbage", 0, "N ピースごとにお邪魔ラインを1本せり上げる (0 なら無し)")
	asJSON := flag.Bool("json", false, "結果をJSONで出力する")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *threeD {
		run3D(ctx, *width, *height, *depth, *set, *pieces, *seed, *lookahead, *parallel, *asJSON)
		return
	}

	botCfg := handlers.BotConfig{Mode: *mode, Lookahead: *lookahead, Parallel: *parallel, SearchTimeout: *timeout}
	engine, err := handlers.NewEngine(botCfg, *mode, nil, *scorer)
	if err != nil {
		log.Fatal().Err(err).Msg("[SelfPlay] エンジンを作成できません")
	}
	state, err := gamesvc.NewPlayerGameState("selfplay", *width, *height, *seed)
	if err != nil {
		log.Fatal().Err(err).Msg("[SelfPlay] 盤面を作成できません")
	}

	result, err := gamesvc.NewAutoPlayer(engine, *timeout).WithGarbage(*garbage).Run(ctx, state, *pieces)
	if err != nil {
		log.Warn().Err(err).Msg("[SelfPlay] 自己対戦が中断されました")
	}

	if *asJSON {
		printJSON(result)
		return
	}
	fmt.Printf("seed:          %d\n", *seed)
	fmt.Printf("scorer:        %s\n", engine.Scorer().Name())
	fmt.Printf("pieces:        %d\n", result.Pieces)
	fmt.Printf("lines cleared: %d\n", result.LinesCleared)
	fmt.Printf("garbage lines: %d\n", result.GarbageLines)
	fmt.Printf("score:         %d (level %d)\n", result.Score, result.Level)
	fmt.Printf("game over:     %t\n", result.GameOver)
	fmt.Printf("duration:      %s\n", result.Duration.Round(time.Millisecond))

	modes := make([]string, 0, len(result.ModeCounts))
	for m := range result.ModeCounts {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	for _, m := range modes {
		fmt.Printf("  %-15s %d\n", m, result.ModeCounts[m])
	}
	fmt.Println(result.Board.String())
}

func run3D(ctx context.Context, width, height, depth int, set string, pieces int, seed int64, lookahead, parallel, asJSON bool) {
	pit, err := voxel.NewPit(width, height, depth)
	if err != nil {
		log.Fatal().Err(err).Msg("[SelfPlay] ピットを作成できません")
	}
	if pieces <= 0 {
		pieces = 1 << 30
	}
	engine := voxelbot.NewEngine(voxelbot.WithLookahead(lookahead), voxelbot.WithParallel(parallel))
	start := time.Now()
	result, err := engine.SelfPlay(ctx, pit, set, pieces, seed)
	if err != nil {
		if result == nil {
			log.Fatal().Err(err).Msg("[SelfPlay] 3Dの自己対戦を開始できません")
		}
		log.Warn().Err(err).Msg("[SelfPlay] 3Dの自己対戦が中断されました")
	}

	if asJSON {
		printJSON(result)
		return
	}
	fmt.Printf("seed:           %d\n", seed)
	fmt.Printf("set:            %s\n", set)
	fmt.Printf("pieces:         %d\n", result.Pieces)
	fmt.Printf("layers cleared: %d\n", result.LayersCleared)
	fmt.Printf("max height:     %d / %d\n", result.MaxHeight, depth)
	fmt.Printf("game over:      %t\n", result.GameOver)
	fmt.Printf("duration:       %s\n", time.Since(start).Round(time.Millisecond))
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("[SelfPlay] JSONの出力に失敗しました")
	}
}
