package api

import (
	"net/http"

	"sfu-globe/internal/service"

	"github.com/gin-gonic/gin"
)

type ClubHandler struct {
	clubService       *service.ClubService
	membershipService *service.MembershipService
}

func NewClubHandler(clubService *service.ClubService, membershipService *service.MembershipService) *ClubHandler {
	return &ClubHandler{
		clubService:       clubService,
		membershipService: membershipService,
	}
}

// ListClubs ?q= 按名称和简介搜索
func (h *ClubHandler) ListClubs(c *gin.Context) {
	clubs, err := h.clubService.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clubs": clubs})
}

func (h *ClubHandler) GetClub(c *gin.Context) {
	clubID, ok := getUUIDParam(c, "club_id")
	if !ok {
		return
	}
	club, err := h.clubService.Get(c.Request.Context(), clubID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"club": club})
}

func (h *ClubHandler) CreateClub(c *gin.Context) {
	var req service.CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	club, err := h.clubService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"club": club})
}

// Join 重复加入返回已有记录，created 为 false
func (h *ClubHandler) Join(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	clubID, ok := getUUIDParam(c, "club_id")
	if !ok {
		return
	}
	membership, created, err := h.membershipService.Join(c.Request.Context(), userID, clubID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": membership, "created": created})
}

func (h *ClubHandler) Leave(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	clubID, ok := getUUIDParam(c, "club_id")
	if !ok {
		return
	}
	removed, err := h.membershipService.Leave(c.Request.Context(), userID, clubID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *ClubHandler) MyMemberships(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	memberships, err := h.membershipService.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberships": memberships})
}
