package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/https-loader/internal/config"
	"github.com/any-hub/https-loader/internal/loader"
	"github.com/any-hub/https-loader/internal/server"
	"github.com/any-hub/https-loader/internal/server/routes"
)

func startHTTPServer(cfg *config.Config, l *loader.Loader, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Loader:     l,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticRoutes(app, l)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
		"mode":   string(l.Mode()),
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
