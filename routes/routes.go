package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matka/controllers/admin"
	"matka/controllers/results"
	"matka/middlewares"
)

type Deps struct {
	Admin       *admin.ResultHandler
	Results     *results.Handler
	AdminSecret string
	Gatherer    prometheus.Gatherer
}

func Setup(app *fiber.App, d Deps) {
	adminroutes := app.Group("/admin", middlewares.AdminAuth(d.AdminSecret))
	adminroutes.Post("/results/declare", d.Admin.Declare)
	adminroutes.Post("/results/pending", d.Admin.Pending)

	app.Get("/results", d.Results.List)
	app.Get("/results/:market", d.Results.Current)
	app.Get("/results/:market/history", d.Results.History)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
