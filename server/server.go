package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/customeros/mailrefresh/api"
	"github.com/customeros/mailrefresh/config"
	"github.com/customeros/mailrefresh/internal/cron"
	"github.com/customeros/mailrefresh/internal/listeners"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/repository"
	"github.com/customeros/mailrefresh/services"
	"github.com/customeros/mailrefresh/services/events"
)

type Server struct {
	config       *config.Config
	log          logger.Logger
	httpServer   *http.Server
	router       *gin.Engine
	services     *services.Services
	repositories *repository.Repositories
	cronManager  *cron.CronManager
	tracerCloser io.Closer
}

func NewServer(cfg *config.Config, log logger.Logger, repos *repository.Repositories, tracerCloser io.Closer) (*Server, error) {
	svcs, err := services.InitServices(cfg, log, repos, true)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	return &Server{
		config:       cfg,
		log:          log,
		router:       router,
		services:     svcs,
		repositories: repos,
		cronManager:  cron.NewCronManager(log, kubernetesClient(log), svcs.InboxService),
		tracerCloser: tracerCloser,
		httpServer: &http.Server{
			Addr:              ":" + cfg.AppConfig.APIPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// kubernetesClient returns nil outside a cluster, which puts cron in local mode
func kubernetesClient(log logger.Logger) kubernetes.Interface {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		log.Debugf("Not running in kubernetes: %v", err)
		return nil
	}
	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		log.Warnf("Could not create kubernetes client: %v", err)
		return nil
	}
	return client
}

func (s *Server) Initialize() error {
	if s.services.EventsService != nil {
		subscriber := s.services.EventsService.Subscriber
		subscriber.RegisterListener(listeners.NewRefreshInboxListener(s.log, s.services.InboxService))
		if err := subscriber.ListenQueue(events.QueueInboxRefresh); err != nil {
			return err
		}
	} else {
		s.log.Info("RABBITMQ_URL not set, queue trigger disabled")
	}

	api.RegisterRoutes(s.router, s.services.InboxService, s.services.RefreshRequestPublisher(), s.config.AppConfig.APIKey)

	return nil
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		ext.Error.Set(span, true)

		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		s.log.Errorf("Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}

func (s *Server) Run() error {
	if err := s.Initialize(); err != nil {
		return err
	}

	s.wrapGoroutine("cron_manager", func() {
		if err := s.cronManager.Start(os.Getenv("POD_NAME"), os.Getenv("POD_NAMESPACE")); err != nil {
			s.log.Errorf("Cron manager error: %v", err)
		}
	})

	go s.wrapGoroutine("http_server", func() {
		s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("HTTP server error: %v", err)
		}
	})
	s.log.Info("mailrefresh is now running. Press Ctrl+C to exit.")

	return s.waitForShutdown()
}

func (s *Server) waitForShutdown() error {
	defer s.recoverWithJaeger("shutdown")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	s.log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("HTTP server shutdown error: %v", err)
	} else {
		s.log.Info("HTTP server shut down successfully")
	}

	// Stop cron with timeout, a running refresh cycle is allowed to finish
	stopDone := make(chan struct{})
	go s.wrapGoroutine("cron_shutdown", func() {
		defer close(stopDone)
		s.cronManager.Stop()
	})

	select {
	case <-stopDone:
		s.log.Info("Cron manager stopped gracefully")
	case <-time.After(10 * time.Second):
		s.log.Warn("Cron manager stop timed out, forcing exit")
	}

	if err := s.services.Close(); err != nil {
		s.log.Errorf("Events service shutdown error: %v", err)
	}

	if s.tracerCloser != nil {
		s.tracerCloser.Close()
	}

	return nil
}
