package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"couponly/internal/aggregator"
	"couponly/internal/domain/stores"
	"couponly/internal/domain/syncruns"
	"couponly/internal/params"
	"couponly/internal/spreadsheet"
	"couponly/internal/takeads"

	"github.com/go-chi/chi/v5"
)

const maxImportSize = 32 << 20

func (app *application) syncError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *takeads.APIError
	switch {
	case errors.Is(err, aggregator.ErrSyncInProgress):
		app.conflictResponse(w, r, err)
	case errors.As(err, &apiErr), errors.Is(err, context.DeadlineExceeded):
		app.upstreamErrorResponse(w, r, err)
	default:
		app.adminErrorResponse(w, r, err)
	}
}

// syncMerchantsHandler godoc
//
//	@Summary		Sync Takeads merchants (Admin)
//	@Description	Fetches every merchant page and upserts stores by merchant id. Upstream errors abort before any write and are returned verbatim.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	aggregator.Result
//	@Failure		409	{object}	error	"Another sync is running"
//	@Failure		502	{object}	error	"Upstream failure"
//	@Security		BasicAuth
//	@Router			/admin/sync/merchants [post]
func (app *application) syncMerchantsHandler(w http.ResponseWriter, r *http.Request) {
	res, err := app.syncer.SyncMerchants(r.Context())
	if err != nil {
		app.syncError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, res)
}

// syncCouponsHandler godoc
//
//	@Summary		Sync Takeads coupons (Admin)
//	@Description	Fetches every coupon page and upserts coupons by coupon id, linking stores through the merchant index.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	aggregator.Result
//	@Failure		409	{object}	error	"Another sync is running"
//	@Failure		502	{object}	error	"Upstream failure"
//	@Security		BasicAuth
//	@Router			/admin/sync/coupons [post]
func (app *application) syncCouponsHandler(w http.ResponseWriter, r *http.Request) {
	res, err := app.syncer.SyncCoupons(r.Context())
	if err != nil {
		app.syncError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, res)
}

// syncAllHandler godoc
//
//	@Summary	Sync merchants then coupons (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{array}		aggregator.Result
//	@Failure	409	{object}	error	"Another sync is running"
//	@Failure	502	{object}	error	"Upstream failure"
//	@Security	BasicAuth
//	@Router		/admin/sync/all [post]
func (app *application) syncAllHandler(w http.ResponseWriter, r *http.Request) {
	results, err := app.syncer.SyncAll(r.Context())
	if err != nil {
		app.syncError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, results)
}

// syncRunsHandler godoc
//
//	@Summary	Recent sync runs (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Param		limit	query		int	false	"Number of runs (default 20, max 100)"
//	@Success	200		{object}	map[string]interface{}
//	@Security	BasicAuth
//	@Router		/admin/sync/runs [get]
func (app *application) syncRunsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	runs, err := app.store.SyncRuns.Recent(ctx, p.Limit)
	if err != nil {
		app.logger.Warnw("sync run log read failed, serving empty list", "error", err)
		runs = []syncruns.Run{}
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// importHandler godoc
//
//	@Summary		Import stores or coupons from a spreadsheet (Admin)
//	@Description	Accepts .xlsx or .csv with a header row. Legacy column names (Store Id, Coupon Deep Link, ...) are mapped; rows without a natural key are skipped.
//	@Tags			Admin
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			resource	path		string	true	"stores or coupons"
//	@Param			file		formData	file	true	"Spreadsheet"
//	@Success		200			{object}	aggregator.ImportResult
//	@Failure		400			{object}	error
//	@Security		BasicAuth
//	@Router			/admin/import/{resource} [post]
func (app *application) importHandler(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if resource != aggregator.ResourceStores && resource != aggregator.ResourceCoupons {
		app.badRequestResponse(w, r, fmt.Errorf("unknown import resource %q", resource))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	format, err := spreadsheet.FormatFromName(header.Filename)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	rows, err := spreadsheet.Parse(file, format)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var res aggregator.ImportResult
	if resource == aggregator.ResourceStores {
		res, err = app.importer.ImportStores(r.Context(), rows, stores.SourceImport)
	} else {
		res, err = app.importer.ImportCoupons(r.Context(), rows, stores.SourceImport)
	}
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, res)
}

// clearCacheHandler godoc
//
//	@Summary	Clear public list caches (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{object}	map[string]bool
//	@Failure	500	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/cache/clear [post]
func (app *application) clearCacheHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := app.caches.clear(ctx); err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]bool{"cleared": true})
}
