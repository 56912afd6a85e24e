package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/infrastructure/configuration"
)

// Auth guards the ops API with an HS256 service token. The signing key comes
// from SECRET_KEY or the app config.
func Auth() gin.HandlerFunc {
	var res dto.Res
	res.ResponseCode = "401"
	res.ResponseMessage = "Unauthorized"

	return func(ctx *gin.Context) {
		authorization := ctx.Request.Header.Get("Authorization")
		if authorization == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		auth := strings.Split(authorization, "Bearer ")
		if len(auth) != 2 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		claims, token, err := getClaim(auth[1], secretKey())
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, describe(err, res))
			return
		}
		ctx.Set("service", claims.Subject)
		ctx.Set("scope", claims.Scope)
		ctx.Next()
	}
}

func secretKey() string {
	if key := os.Getenv("SECRET_KEY"); key != "" {
		return key
	}
	return configuration.C.App.SecretKey
}

func describe(err error, res dto.Res) dto.Res {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		if ve.Errors&jwt.ValidationErrorMalformed != 0 {
			res.ResponseMessage = "That's not even a token"
		} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			// Token is either expired or not active yet
			res.ResponseMessage = "Timing is everything"
		} else {
			res.ResponseMessage = fmt.Sprintf("Couldn't handle this token:%v", err)
		}
	}
	return res
}

func getClaim(tokenString, secretKey string) (*model.ServiceClaims, *jwt.Token, error) {
	claims := &model.ServiceClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
	)
	return claims, token, err
}
