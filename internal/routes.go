package internal

import (
	"clanwatch/internal/controllers"
	"clanwatch/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/overview", http.HandlerFunc(apiController.Overview))
	routers.Get("/members", http.HandlerFunc(apiController.Members))
	routers.Get("/alerts", http.HandlerFunc(apiController.Alerts))
	routers.Get("/logs", http.HandlerFunc(apiController.Logs))
	routers.Get("/gold/weeks", http.HandlerFunc(apiController.GoldWeeks))
	routers.Get("/gold", http.HandlerFunc(apiController.Gold))
	routers.Get("/player", http.HandlerFunc(apiController.Player))
	routers.Get("/player/logs", http.HandlerFunc(apiController.PlayerLogs))
	routers.Get("/compare", http.HandlerFunc(apiController.Compare))
	routers.Get("/market", http.HandlerFunc(apiController.Market))
	routers.Get("/market/item", http.HandlerFunc(apiController.MarketItem))
	routers.Post("/refresh", http.HandlerFunc(apiController.Refresh))
	return routers
}
