package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/store"
)

const (
	fleetStatusKey   = "sync:fleet:status"
	vectorsStatusKey = "sync:vectors:status"
	syncStatusTTL    = 7 * 24 * time.Hour
)

// SyncStatus last outcome of a sync run, cached for the status endpoint.
type SyncStatus struct {
	Count    int       `json:"count"`
	SyncedAt time.Time `json:"synced_at"`
	Error    string    `json:"error,omitempty"`
}

// charroiRecord one vehicle row from the fireplan charroi API.
type charroiRecord struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	NumLetter   string `json:"numLettre"`
	Num         int    `json:"num"`
	Plate       string `json:"plate"`
	Utilisation string `json:"utilisation"`
	Chassis     string `json:"chassis"`
	Statut      string `json:"statut"`
}

type charroiResponse struct {
	Records []charroiRecord `json:"records"`
}

// inventoryRecord one row from the fireplan inventory QR-code export.
type inventoryRecord struct {
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber"`
	QRCode       string `json:"qrCode"`
}

type inventoryResponse struct {
	Records []inventoryRecord `json:"records"`
}

// vectorItem one resource from the resourcesoff vector feed.
type vectorItem struct {
	Name              string `json:"Name"`
	StatusCode        string `json:"StatusCode"`
	PResourceCode     string `json:"pResourceCode"`
	PName             string `json:"pName"`
	PAbbreviation     string `json:"pAbbreviation"`
	PServiceAbbr      string `json:"pServiceAbbreviation"`
	PResourceTypeCode string `json:"pResourceTypeCode"`
}

// qrCodePattern infoscan QR payload; the third number is the fireplan id.
var qrCodePattern = regexp.MustCompile(`^https://infoscan\.firebru\.brussels\?data[=-]\d+,\d+,(\d+),\d+`)

// radioInventoryNames inventory item names that are Astrid radios.
var radioInventoryNames = map[string]bool{
	"Radio mobile Astrid":   true,
	"Radio portable Astrid": true,
	"Portable ATEX":         true,
}

// FleetSyncService pulls vehicle, radio-inventory and vector data from the
// legacy fleet systems into the local mirror tables.
type FleetSyncService struct {
	fireplan     *FireplanClient
	resourcesoff *ResourcesoffClient
	vehicles     repository.VehiclesRepo
	radios       repository.RadiosRepo
	kv           store.KV
	logger       *zap.Logger
}

func NewFleetSyncService(
	fireplan *FireplanClient,
	resourcesoff *ResourcesoffClient,
	vehicles repository.VehiclesRepo,
	radios repository.RadiosRepo,
	kv store.KV,
	logger *zap.Logger,
) *FleetSyncService {
	return &FleetSyncService{
		fireplan:     fireplan,
		resourcesoff: resourcesoff,
		vehicles:     vehicles,
		radios:       radios,
		kv:           kv,
		logger:       logger,
	}
}

// SyncFleet mirrors the fireplan vehicle list, then refreshes the radio
// fireplan ids from the inventory QR codes.
func (s *FleetSyncService) SyncFleet(ctx context.Context) (int, error) {
	count, err := s.syncFleet(ctx)
	s.recordStatus(ctx, fleetStatusKey, count, err)
	return count, err
}

func (s *FleetSyncService) syncFleet(ctx context.Context) (int, error) {
	if err := s.fireplan.Login(); err != nil {
		return 0, err
	}

	var resp charroiResponse
	payload := map[string]any{
		"page":     1,
		"size":     5000,
		"sortby":   "number",
		"sortdesc": false,
	}
	if err := s.fireplan.PostJSON("/fr/api/charroi/view", payload, &resp); err != nil {
		return 0, err
	}

	vehicles := make([]*domain.Vehicle, 0, len(resp.Records))
	for _, rec := range resp.Records {
		v := &domain.Vehicle{
			ID:          rec.ID,
			Number:      rec.Number,
			NumLetter:   rec.NumLetter,
			NumValue:    rec.Num,
			Plate:       rec.Plate,
			Utilisation: rec.Utilisation,
			Chassis:     rec.Chassis,
		}
		if rec.Statut != "" {
			v.Status = sql.NullString{String: rec.Statut, Valid: true}
		}
		vehicles = append(vehicles, v)
	}

	count, err := s.vehicles.Upsert(ctx, vehicles)
	if err != nil {
		return 0, err
	}
	s.logger.Info("fleet synced", zap.Int("vehicles", count))

	if err := s.syncRadioIDs(ctx); err != nil {
		s.logger.Warn("radio inventory sync failed", zap.Error(err))
	}

	return count, nil
}

// syncRadioIDs links radios to their inventory records via the QR code
// export. Serial numbers that classify against no TEI range are skipped.
func (s *FleetSyncService) syncRadioIDs(ctx context.Context) error {
	var resp inventoryResponse
	params := map[string]string{
		"first":         "0",
		"rows":          "5000",
		"multiSortMeta": "[]",
	}
	if err := s.fireplan.GetJSON("/fr/api/inventory/qr-codes", params, &resp); err != nil {
		return err
	}

	linked := 0
	for _, rec := range resp.Records {
		if !radioInventoryNames[rec.Name] {
			continue
		}
		m := qrCodePattern.FindStringSubmatch(rec.QRCode)
		if m == nil {
			continue
		}
		fireplanID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		tei, err := domain.NormalizeTEI(rec.SerialNumber)
		if err != nil {
			continue
		}

		if err := s.radios.SetFireplanID(ctx, tei, fireplanID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if _, err := s.radios.Create(ctx, tei); err != nil {
				if errors.Is(err, repository.ErrNoModelForTEI) {
					continue
				}
				return err
			}
			if err := s.radios.SetFireplanID(ctx, tei, fireplanID); err != nil {
				return err
			}
		}
		linked++
	}

	s.logger.Info("radio inventory synced", zap.Int("linked", linked))
	return nil
}

// SyncVectors mirrors the resourcesoff vector feed. A vehicle reported by
// several records keeps the one with the highest status code; vectors gone
// from the feed are removed.
func (s *FleetSyncService) SyncVectors(ctx context.Context) (int, error) {
	count, err := s.syncVectors(ctx)
	s.recordStatus(ctx, vectorsStatusKey, count, err)
	return count, err
}

func (s *FleetSyncService) syncVectors(ctx context.Context) (int, error) {
	if err := s.resourcesoff.Login(); err != nil {
		return 0, err
	}

	var root struct {
		Data map[string]map[string]json.RawMessage `json:"data"`
	}
	params := map[string]string{
		"mode":        "resources",
		"servicetype": "atelier",
		"version":     "cnd",
		"lang":        "fr",
	}
	if err := s.resourcesoff.GetJSON("/php/vehicule_ajax.php", params, &root); err != nil {
		return 0, err
	}

	type candidate struct {
		item     vectorItem
		priority int
	}
	best := map[int64]candidate{}

	for _, groups := range root.Data {
		for _, raw := range groups {
			for _, item := range decodeVectorGroup(raw) {
				if item.Name == "" || item.PResourceCode == "" {
					continue
				}
				vehicle, err := s.vehicles.MatchByNumber(ctx, item.Name)
				if err == repository.ErrNotFound {
					continue
				}
				if err != nil {
					return 0, err
				}

				c := candidate{item: item, priority: statusPriority(item.StatusCode)}
				if prev, ok := best[vehicle.ID]; !ok || c.priority > prev.priority {
					best[vehicle.ID] = c
				}
			}
		}
	}

	vectors := make([]*domain.Vector, 0, len(best))
	for vehicleID, c := range best {
		vec := &domain.Vector{
			ResourceCode: c.item.PResourceCode,
			VehicleID:    sql.NullInt64{Int64: vehicleID, Valid: true},
			Name:         c.item.PName,
			Abbreviation: c.item.PAbbreviation,
		}
		if c.item.PServiceAbbr != "" {
			vec.ServiceCode = sql.NullString{String: c.item.PServiceAbbr, Valid: true}
		}
		if c.item.PResourceTypeCode != "" {
			vec.ResourceTypeCode = sql.NullString{String: c.item.PResourceTypeCode, Valid: true}
		}
		if c.item.StatusCode != "" {
			vec.StatusCode = sql.NullString{String: c.item.StatusCode, Valid: true}
		}
		vectors = append(vectors, vec)
	}

	count, err := s.vehicles.ReplaceVectors(ctx, vectors)
	if err != nil {
		return 0, err
	}
	s.logger.Info("vectors synced", zap.Int("vectors", count))
	return count, nil
}

// decodeVectorGroup a station group arrives either as an array or as an
// object keyed by arbitrary ids.
func decodeVectorGroup(raw json.RawMessage) []vectorItem {
	var list []vectorItem
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var byID map[string]vectorItem
	if err := json.Unmarshal(raw, &byID); err == nil {
		out := make([]vectorItem, 0, len(byID))
		for _, item := range byID {
			out = append(out, item)
		}
		return out
	}
	return nil
}

// statusPriority numeric status codes rank by value, unknown codes rank
// lowest but above a missing status.
func statusPriority(code string) int {
	if code == "" {
		return -1
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0
	}
	return n
}

// Status returns the cached outcome of the last fleet and vector runs.
func (s *FleetSyncService) Status(ctx context.Context) (fleet, vectors *SyncStatus) {
	return s.readStatus(ctx, fleetStatusKey), s.readStatus(ctx, vectorsStatusKey)
}

func (s *FleetSyncService) recordStatus(ctx context.Context, key string, count int, runErr error) {
	st := SyncStatus{Count: count, SyncedAt: time.Now().UTC()}
	if runErr != nil {
		st.Error = runErr.Error()
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, key, string(data), syncStatusTTL); err != nil {
		s.logger.Warn("failed to cache sync status", zap.String("key", key), zap.Error(err))
	}
}

func (s *FleetSyncService) readStatus(ctx context.Context, key string) *SyncStatus {
	val, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil
	}
	var st SyncStatus
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return nil
	}
	return &st
}
