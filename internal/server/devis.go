package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/media"
)

type devisView struct {
	Configuration devisdomain.QuoteConfiguration `json:"configuration"`
	State         string                         `json:"state"`
	Synced        *bool                          `json:"synced,omitempty"`
}

func newDevisView(sess devisdomain.ConfigurationStore) devisView {
	return devisView{Configuration: sess.Get(), State: sess.State().String()}
}

// session opens the quote named by the :id path parameter.
func (s *Server) session(c *gin.Context) (devisdomain.Session, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return nil, false
	}
	sess, err := s.devisSvc.Open(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	return sess, true
}

// awaitAck waits for persistence when the caller asked for it with ?wait=true.
// The result is nil when nobody waited.
func awaitAck(c *gin.Context, ack devisdomain.Ack) (*bool, bool) {
	wait, err := waitRequested(c)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	if !wait || ack == nil {
		return nil, true
	}
	synced := ack.Wait(c.Request.Context()) == nil
	return &synced, true
}

type createDevisRequest struct {
	ProjectID             string   `json:"projectId"`
	UserID                string   `json:"userId"`
	Title                 string   `json:"title"`
	DefaultTaxRatePercent *float64 `json:"defaultTaxRatePercent"`
}

func (s *Server) CreateDevis(c *gin.Context) {
	var req createDevisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sess, err := s.devisSvc.Create(c.Request.Context(), devisdomain.CreateRequest{
		ProjectID:             strings.TrimSpace(req.ProjectID),
		UserID:                strings.TrimSpace(req.UserID),
		Title:                 strings.TrimSpace(req.Title),
		DefaultTaxRatePercent: req.DefaultTaxRatePercent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newDevisView(sess)})
}

func (s *Server) GetDevis(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newDevisView(sess)})
}

// SetDevisField replaces one top-level field with the raw JSON body.
func (s *Server) SetDevisField(c *gin.Context) {
	field, err := devisdomain.ParseField(c.Param("field"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("devis_field", string(field))

	body, err := c.GetRawData()
	if err != nil || len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		AbortWithError(c, invalidRequestError())
		return
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}

	ack, err := sess.SetField(c.Request.Context(), field, json.RawMessage(body))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	synced, ok := awaitAck(c, ack)
	if !ok {
		return
	}

	view := newDevisView(sess)
	view.Synced = synced
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) GetDevisTotals(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sess.Totals()})
}

func (s *Server) RenderDevisPDF(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	doc, err := s.renderer.Render(c.Request.Context(), sess.Get())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", contentDisposition(doc.Filename))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

func (s *Server) ListSurfaces(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sess.ActiveSurfaces()})
}

type editSurfaceRequest struct {
	Field string   `json:"field"`
	Value *float64 `json:"value"`
}

type surfaceView struct {
	Surface devisdomain.SurfaceRecord `json:"surface"`
	State   string                    `json:"state"`
	Synced  *bool                     `json:"synced,omitempty"`
}

func (s *Server) EditSurface(c *gin.Context) {
	var req editSurfaceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	field, err := devisdomain.ParseSurfaceField(req.Field)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}

	rec, ack, err := sess.EditSurface(c.Request.Context(), c.Param("room"), field, *req.Value)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	synced, ok := awaitAck(c, ack)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": surfaceView{Surface: rec, State: sess.State().String(), Synced: synced}})
}

type itemView struct {
	Item   devisdomain.LineItem `json:"item"`
	Totals devisdomain.Totals   `json:"totals"`
	State  string               `json:"state"`
	Synced *bool                `json:"synced,omitempty"`
}

func (s *Server) respondItem(c *gin.Context, sess devisdomain.Session, item devisdomain.LineItem, ack devisdomain.Ack) {
	synced, ok := awaitAck(c, ack)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": itemView{
		Item:   item,
		Totals: sess.Totals(),
		State:  sess.State().String(),
		Synced: synced,
	}})
}

func (s *Server) AddCatalogItem(c *gin.Context) {
	var req devisdomain.CatalogSelection
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}

	item, ack, err := sess.AddCatalogItem(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.respondItem(c, sess, item, ack)
}

func (s *Server) AddCustomItem(c *gin.Context) {
	var req devisdomain.CustomItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}

	item, ack, err := sess.AddCustomItem(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.respondItem(c, sess, item, ack)
}

func (s *Server) UpdateItem(c *gin.Context) {
	var req devisdomain.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("itemId")

	sess, ok := s.session(c)
	if !ok {
		return
	}

	item, ack, err := sess.UpdateItem(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.respondItem(c, sess, item, ack)
}

func (s *Server) RemoveItem(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	ack, err := sess.RemoveItem(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	synced, ok := awaitAck(c, ack)
	if !ok {
		return
	}

	view := newDevisView(sess)
	view.Synced = synced
	c.JSON(http.StatusOK, gin.H{"data": view})
}

type giftRequest struct {
	Gifted *bool `json:"gifted"`
}

func (s *Server) SetItemGifted(c *gin.Context) {
	var req giftRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Gifted == nil {
		AbortWithError(c, newValidationError("gifted", "invalid_gifted", "gifted is required"))
		return
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}

	item, ack, err := sess.SetItemGifted(c.Request.Context(), c.Param("itemId"), *req.Gifted)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.respondItem(c, sess, item, ack)
}

func (s *Server) UploadItemImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}
	if header.Size > media.MaxFileSize {
		AbortWithError(c, newValidationError("file", "too_large", "file is too large"))
		return
	}

	sess, ok := s.session(c)
	if !ok {
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	item, ack, err := sess.SetItemImage(c.Request.Context(), c.Param("itemId"), file, header.Filename)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.respondItem(c, sess, item, ack)
}
