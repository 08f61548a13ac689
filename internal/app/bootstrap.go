package app

import (
	"context"
	"errors"

	"github.com/bizframe/internal/config"
	"github.com/bizframe/internal/provider"
	"github.com/bizframe/internal/router"
	"github.com/bizframe/internal/scheduler"
	"github.com/bizframe/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)
	services, err := buildServices(cfg, container, mode)
	if err != nil {
		container.Close()
		return nil, err
	}

	// 如果没有服务被启动（例如模式错误或配置导致都没起），应该报错或至少打日志
	if len(services) == 0 {
		container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

func buildServices(cfg *config.Config, container *provider.Container, mode string) ([]Service, error) {
	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// 初始化 Worker 服务（队列未启用时跳过）
	if (mode == ModeAll || mode == ModeWorker) && cfg.Queue.Enabled {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	// 初始化定时调度
	if (mode == ModeAll || mode == ModeScheduler) && cfg.Scheduler.Enabled {
		schedulerService, err := scheduler.NewService(cfg, container.QueueClient, worker.NewConsumer(container))
		if err != nil {
			return nil, err
		}
		runner := scheduler.NewRunnerService(schedulerService)
		if err := scheduler.RegisterDefaultJobs(context.Background(), runner.Scheduler(), cfg.Scheduler); err != nil {
			return nil, err
		}
		services = append(services, runner)
	}

	return services, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
