package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/playstriker/backend/internal/config"
	"github.com/playstriker/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

// Register creates a player account keyed by handle. The PIN is optional;
// accounts without one can only be claimed by setting a PIN later.
func Register(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Handle      string `json:"handle"`
			DisplayName string `json:"display_name"`
			PIN         string `json:"pin"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle required"})
			return
		}

		handle := strings.ToLower(strings.TrimSpace(req.Handle))
		if !handlePattern.MatchString(handle) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle must be 3-32 chars: a-z, 0-9, underscore"})
			return
		}

		var pinHash sql.NullString
		if req.PIN != "" {
			if len(req.PIN) < 4 || len(req.PIN) > 8 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "pin must be 4-8 digits"})
				return
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
			if err != nil {
				log.Printf("[AUTH] Failed to hash PIN: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			pinHash = sql.NullString{String: string(hashed), Valid: true}
		}

		displayName := strings.TrimSpace(req.DisplayName)
		if displayName == "" {
			displayName = handle
		}

		var id int
		err := db.QueryRowx(
			`INSERT INTO players (handle, display_name, pin_hash, created_at, is_active)
			 VALUES ($1, $2, $3, NOW(), true) RETURNING id`,
			handle, displayName, pinHash,
		).Scan(&id)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				c.JSON(http.StatusConflict, gin.H{"error": "handle already taken"})
				return
			}
			log.Printf("[AUTH] Failed to create player %s: %v", handle, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		token, err := issueToken(cfg, id, handle)
		if err != nil {
			log.Printf("[AUTH] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"player": gin.H{
				"id":           id,
				"handle":       handle,
				"display_name": displayName,
			},
		})
	}
}

// Login verifies a handle+PIN pair and issues a JWT.
func Login(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Handle string `json:"handle"`
			PIN    string `json:"pin"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle and pin required"})
			return
		}
		handle := strings.ToLower(strings.TrimSpace(req.Handle))

		var player models.Player
		if err := db.Get(&player, `SELECT * FROM players WHERE handle=$1 AND is_active=true`, handle); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid handle or pin"})
			return
		}
		if !player.PINHash.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no pin set for this account"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(player.PINHash.String), []byte(req.PIN)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid handle or pin"})
			return
		}

		db.Exec(`UPDATE players SET last_active=NOW() WHERE id=$1`, player.ID)

		token, err := issueToken(cfg, player.ID, handle)
		if err != nil {
			log.Printf("[AUTH] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"player": gin.H{
				"id":           player.ID,
				"handle":       player.Handle,
				"display_name": player.DisplayName,
			},
		})
	}
}

// SetPIN lets an authenticated player set or rotate their PIN.
func SetPIN(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pid, ok := playerIDFromContext(c)
		if !ok {
			return
		}

		var req struct {
			PIN string `json:"pin"`
		}
		if err := c.BindJSON(&req); err != nil || len(req.PIN) < 4 || len(req.PIN) > 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pin must be 4-8 digits"})
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[AUTH] Failed to hash PIN: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if _, err := db.Exec(`UPDATE players SET pin_hash=$1 WHERE id=$2`, string(hashed), pid); err != nil {
			log.Printf("[AUTH] Failed to store PIN for player %d: %v", pid, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pin_set": true})
	}
}

// AuthMiddleware validates a bearer JWT and sets player_id in context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		playerIDf, ok := claims["player_id"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("player_id", int(playerIDf))
		c.Next()
	}
}

func issueToken(cfg *config.Config, playerID int, handle string) (string, error) {
	exp := time.Now().Add(24 * time.Hour)
	claims := jwt.MapClaims{
		"player_id": playerID,
		"handle":    handle,
		"exp":       exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// playerIDFromContext reads the player id set by AuthMiddleware, replying
// 401 itself when absent.
func playerIDFromContext(c *gin.Context) (int, bool) {
	pidI, ok := c.Get("player_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return pidI.(int), true
}
