package main

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/undersounds/undersounds/shared/middleware"
)

var (
	userServiceURL    = getEnv("USER_SERVICE_URL", "http://localhost:8082")
	contentServiceURL = getEnv("CONTENT_SERVICE_URL", "http://localhost:8083")
)

func main() {
	middleware.MustInitAccessSecret()

	router := gin.Default()
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware())
	router.Use(middleware.NewRateLimiter(getEnvInt("RATE_LIMIT_GENERAL", 100)).Middleware())

	authLimit := middleware.NewRateLimiter(getEnvInt("RATE_LIMIT_AUTH", 20)).Middleware()
	otpLimit := middleware.NewRateLimiter(getEnvInt("RATE_LIMIT_OTP", 5)).Middleware()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "api-gateway"})
	})

	// Session routes (no authentication required)
	router.POST("/v1/auth/register", authLimit, proxyTo(userServiceURL))
	router.POST("/v1/auth/login", authLimit, proxyTo(userServiceURL))
	router.POST("/v1/auth/logout", proxyTo(userServiceURL))
	router.POST("/v1/auth/refresh-token", authLimit, proxyTo(userServiceURL))
	router.POST("/v1/auth/forgot-password", otpLimit, proxyTo(userServiceURL))
	router.POST("/v1/auth/reset-password", otpLimit, proxyTo(userServiceURL))

	// Session routes behind the access token
	router.GET("/v1/auth/me", middleware.AuthMiddleware(), proxyTo(userServiceURL))
	router.POST("/v1/auth/toggle-follow", middleware.AuthMiddleware(), proxyTo(userServiceURL))
	router.POST("/v1/auth/toggle-like", middleware.AuthMiddleware(), proxyTo(userServiceURL))

	// Account routes
	router.PUT("/v1/accounts/:accountId", middleware.AuthMiddleware(), proxyTo(userServiceURL))
	router.POST("/v1/accounts/:accountId/link-artist", middleware.AuthMiddleware(), proxyTo(userServiceURL))

	// Artist reads are public; artist writes are service-to-service only and
	// deliberately not exposed through the gateway.
	router.GET("/v1/artists", proxyTo(contentServiceURL))
	router.GET("/v1/artists/:artistId", proxyTo(contentServiceURL))

	port := getEnv("PORT", "8080")
	log.Printf("API Gateway starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	origins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ",")
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func proxyTo(serviceURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewBuffer(bodyBytes))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
			return
		}

		for key, values := range c.Request.Header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		// Forward the authenticated account id so downstream services do not
		// have to re-verify the token.
		if accountID, ok := middleware.GetAccountID(c); ok {
			req.Header.Set("X-Account-ID", accountID)
		}

		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			log.Printf("Error proxying request: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Service unavailable"})
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read response"})
			return
		}

		for key, values := range resp.Header {
			for _, value := range values {
				c.Header(key, value)
			}
		}

		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return strings.TrimSuffix(value, "/")
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
