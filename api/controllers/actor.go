package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/api/middleware"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

func requireActor(r *http.Request) (uuid.UUID, error) {
	id := middleware.ActorIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor missing")
	}
	return id, nil
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
