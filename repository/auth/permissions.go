package auth

import (
	"fmt"
	"net/http"
	"thesis_repo/repository/schema"
)

// RoleOnly rejects requests from any user whose role does not match. The user
// is taken from the request context populated by the identity provider.
func RoleOnly(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if user.Role != role {
				http.Error(w, fmt.Sprintf("user %v does not have the %v role required for this endpoint", user.Id, role), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

func StudentOnly() func(http.Handler) http.Handler {
	return RoleOnly(schema.RoleStudent)
}

func LecturerOnly() func(http.Handler) http.Handler {
	return RoleOnly(schema.RoleLecturer)
}

func AdminOnly() func(http.Handler) http.Handler {
	return RoleOnly(schema.RoleAdmin)
}
