// LunBan 轮班计划引擎
// 主程序入口

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/internal/config"
	"github.com/lunban/lunban/internal/database"
	"github.com/lunban/lunban/internal/metrics"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/plan"
	"github.com/lunban/lunban/pkg/plan/constraint"
	"github.com/lunban/lunban/pkg/plan/solver"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		orgFlag     = flag.String("org", "", "组织ID（UUID）")
		startFlag   = flag.String("start", "", "计划开始日期 YYYY-MM-DD")
		endFlag     = flag.String("end", "", "计划结束日期 YYYY-MM-DD")
		dryRun      = flag.Bool("dry-run", false, "只求解不落库，结果输出到标准输出")
		showVersion = flag.Bool("version", false, "打印版本信息")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("LunBan 轮班计划引擎 v%s\n", Version)
		fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	if *orgFlag == "" || *startFlag == "" || *endFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	orgID, err := uuid.Parse(*orgFlag)
	if err != nil {
		logger.Fatal().Err(err).Str("org", *orgFlag).Msg("组织ID格式错误")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("数据库连接失败")
	}
	defer db.Close()

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Planner.SolveTimeout+time.Minute)
	defer cancel()

	result, err := runSolve(ctx, cfg, db, orgID, *startFlag, *endFlag, *dryRun)
	if err != nil {
		logger.Fatal().Err(err).Msg("排班求解失败")
	}

	if !result.Feasible() {
		logger.Error().
			Str("status", string(result.Status)).
			Str("message", result.Message).
			Msg("未找到可行排班")
		os.Exit(3)
	}

	logger.Info().
		Str("status", string(result.Status)).
		Int("assignments", len(result.Assignments)).
		Int("duties", len(result.DayDuties)).
		Dur("duration", result.Duration).
		Msg("排班计划已生成")
}

// runSolve 加载输入、执行求解并按需落库
func runSolve(ctx context.Context, cfg *config.Config, db *database.DB, orgID uuid.UUID, start, end string, dryRun bool) (*plan.Result, error) {
	teamRepo := repository.NewTeamRepository(db)
	empRepo := repository.NewEmployeeRepository(db)
	shiftRepo := repository.NewShiftTypeRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	lockRepo := repository.NewLockRepository(db)

	teams, err := teamRepo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	employees, err := empRepo.ListActive(ctx, orgID)
	if err != nil {
		return nil, err
	}

	canonical, err := shiftRepo.CanonicalRotation(ctx, orgID)
	if err != nil {
		return nil, err
	}

	catalog, err := shiftRepo.LoadCatalog(ctx, orgID, canonical)
	if err != nil {
		return nil, err
	}

	// 锁与缺勤按外扩整周的区间加载，窗口扩展由求解器内部完成；
	// 这里直接多取前后一周，多余记录在对账阶段丢弃。
	loadStart := model.AddDays(start, -7)
	loadEnd := model.AddDays(end, 7)

	absences, err := absenceRepo.ListOverlapping(ctx, orgID, loadStart, loadEnd)
	if err != nil {
		return nil, err
	}

	locks, err := lockRepo.LoadWindow(ctx, orgID, loadStart, loadEnd)
	if err != nil {
		return nil, err
	}

	defaults := constraint.DefaultDefaults()
	defaults.MinRestHours = float64(cfg.Planner.MinRestHours)
	defaults.StaffingMaxHard = cfg.Planner.StaffingMaxHard

	planner := plan.NewPlanner()
	req := &plan.Request{
		StartDate: start,
		EndDate:   end,
		Teams:     teams,
		Employees: employees,
		Absences:  absences,
		Locks:     locks,
		Catalog:   catalog,
		Defaults:  defaults,
		Limits: solver.Limits{
			TimeLimit: cfg.Planner.SolveTimeout,
			Workers:   cfg.Planner.Workers,
		},
	}

	solveStart := time.Now()
	result, err := planner.Solve(ctx, req)
	if err != nil {
		metrics.RecordSolve("error", time.Since(solveStart))
		return nil, err
	}

	recordResult(orgID, result)

	if dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return nil, fmt.Errorf("输出结果失败: %w", err)
		}
		return result, nil
	}

	if result.Feasible() {
		err = db.Transaction(ctx, func(tx *sql.Tx) error {
			planRepo := repository.NewPlanRepository(tx)
			return planRepo.ReplaceWindow(ctx, orgID,
				result.Window.Start, result.Window.End,
				result.Assignments, result.DayDuties)
		})
		if err != nil {
			return nil, err
		}
	}

	db.ReportPoolStats()

	return result, nil
}

// recordResult 把求解结果写入监控指标
func recordResult(orgID uuid.UUID, result *plan.Result) {
	metrics.RecordSolve(string(result.Status), result.Duration)

	if result.LockReport != nil {
		metrics.RecordLockConflictsHealed(result.LockReport.Healed())
		metrics.RecordBoundaryLocksSuppressed(len(result.LockReport.SuppressedBoundary))
	}

	org := orgID.String()
	byOrigin := make(map[string]int)
	for _, a := range result.Assignments {
		byOrigin[string(a.Origin)]++
	}
	for origin, count := range byOrigin {
		metrics.SetAssignmentsEmitted(org, origin, count)
	}

	if result.ConstraintResult != nil {
		metrics.SetSoftPenalty(org, result.ConstraintResult.TotalPenalty)
	}
	if result.Fairness != nil {
		metrics.SetFairnessScore(org, result.Fairness.OverallScore)
	}
}

// serveMetrics 启动指标端点
func serveMetrics(cfg config.MetricsConfig) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"lunban"}`))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Str("addr", addr).Msg("指标端点退出")
	}
}
