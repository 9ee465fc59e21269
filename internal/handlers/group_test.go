package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phani-manda/chatX/internal/mocks"
	"github.com/phani-manda/chatX/internal/models"
	"github.com/phani-manda/chatX/internal/repositories"
)

func setupGroupRouter(handler *GroupHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/groups", handler.CreateGroup)
	r.GET("/groups", handler.ListGroups)
	r.GET("/groups/:id", handler.GetGroup)
	r.PUT("/groups/:id", handler.UpdateGroup)
	r.POST("/groups/:id/leave", handler.LeaveGroup)
	r.POST("/groups/:id/members", handler.AddMember)
	r.DELETE("/groups/:id/members/:userId", handler.RemoveMember)
	r.GET("/groups/:id/messages", handler.GetGroupMessages)
	r.POST("/groups/:id/messages", handler.PostGroupMessage)
	r.DELETE("/groups/:id/messages/:messageId", handler.DeleteGroupMessage)
	return r
}

func newGroupHandler(users *mocks.UserRepositoryMock, groups *mocks.GroupRepositoryMock, groupMessages *mocks.GroupMessageRepositoryMock) *GroupHandler {
	return NewGroupHandler(users, groups, groupMessages, nil, nil)
}

func groupDetail(adminID int, memberIDs ...int) models.GroupDetail {
	detail := models.GroupDetail{
		Group: models.Group{ID: 7, Name: "team", AdminID: adminID},
		Admin: models.UserSummary{ID: adminID},
	}
	for _, id := range memberIDs {
		detail.Members = append(detail.Members, models.UserSummary{ID: id})
	}
	return detail
}

func TestCreateGroupSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(users, groups, nil))

	users.On("ListByIDs", mock.Anything, []int{2, 3}).
		Return([]models.UserSummary{{ID: 2}, {ID: 3}}, nil).Once()
	groups.On("CreateGroup", mock.Anything, 1, "team", "the team", []int{2, 3}).
		Return(models.Group{ID: 7, Name: "team", AdminID: 1}, nil).Once()
	groups.On("GetGroupDetail", mock.Anything, 7).
		Return(groupDetail(1, 1, 2, 3), nil).Once()

	body := bytes.NewBufferString(`{"name":"team","description":"the team","members":[2,3]}`)
	req := httptest.NewRequest(http.MethodPost, "/groups", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	users.AssertExpectations(t)
	groups.AssertExpectations(t)
}

func TestCreateGroupMissingName(t *testing.T) {
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), new(mocks.GroupRepositoryMock), nil))

	body := bytes.NewBufferString(`{"members":[2]}`)
	req := httptest.NewRequest(http.MethodPost, "/groups", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGroupUnknownMember(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(users, groups, nil))

	users.On("ListByIDs", mock.Anything, []int{2, 99}).
		Return([]models.UserSummary{{ID: 2}}, nil).Once()

	body := bytes.NewBufferString(`{"name":"team","members":[2,99]}`)
	req := httptest.NewRequest(http.MethodPost, "/groups", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	groups.AssertNotCalled(t, "CreateGroup")
}

func TestGetGroupNonMember(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, nil))

	groups.On("IsMember", mock.Anything, 7, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/groups/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groups.AssertNotCalled(t, "GetGroupDetail")
}

func TestUpdateGroupNotAdmin(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 2}, nil).Once()

	body := bytes.NewBufferString(`{"name":"renamed"}`)
	req := httptest.NewRequest(http.MethodPut, "/groups/7", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groups.AssertNotCalled(t, "UpdateGroup")
}

func TestUpdateGroupSuccess(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 1}, nil).Once()
	name := "renamed"
	groups.On("UpdateGroup", mock.Anything, 7, &name, (*string)(nil), (*string)(nil)).
		Return(models.Group{ID: 7, Name: "renamed", AdminID: 1}, nil).Once()
	groups.On("GetGroupDetail", mock.Anything, 7).
		Return(groupDetail(1, 1, 2), nil).Once()

	body := bytes.NewBufferString(`{"name":"renamed"}`)
	req := httptest.NewRequest(http.MethodPut, "/groups/7", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groups.AssertExpectations(t)
}

func TestAddMemberNotAdmin(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 2}, nil).Once()

	body := bytes.NewBufferString(`{"userId":3}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/7/members", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groups.AssertNotCalled(t, "AddMember")
}

func TestAddMemberAlreadyMember(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(users, groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 1}, nil).Once()
	users.On("GetUser", mock.Anything, 3).Return(models.User{ID: 3}, nil).Once()
	groups.On("AddMember", mock.Anything, 7, 3).Return(repositories.ErrAlreadyMember).Once()

	body := bytes.NewBufferString(`{"userId":3}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/7/members", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already a member")
}

func TestAddMemberSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(users, groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 1}, nil).Once()
	users.On("GetUser", mock.Anything, 3).Return(models.User{ID: 3}, nil).Once()
	groups.On("AddMember", mock.Anything, 7, 3).Return(nil).Once()
	groups.On("GetGroupDetail", mock.Anything, 7).
		Return(groupDetail(1, 1, 2, 3), nil).Once()

	body := bytes.NewBufferString(`{"userId":3}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/7/members", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groups.AssertExpectations(t)
}

func TestRemoveMemberAdminIrremovable(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/7/members/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	groups.AssertNotCalled(t, "RemoveMember")
}

func TestRemoveMemberByNonAdmin(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/7/members/3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groups.AssertNotCalled(t, "RemoveMember")
}

func TestRemoveMemberByAdmin(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 1}, nil).Once()
	groups.On("RemoveMember", mock.Anything, 7, 3).Return(nil).Once()
	groups.On("GetGroupDetail", mock.Anything, 7).
		Return(groupDetail(1, 1, 2), nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/7/members/3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groups.AssertExpectations(t)
}

func TestLeaveGroup(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 2}, nil).Once()
	groups.On("RemoveMember", mock.Anything, 7, 1).Return(nil).Once()
	groups.On("GetGroupDetail", mock.Anything, 7).
		Return(groupDetail(2, 2, 3), nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/7/leave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groups.AssertExpectations(t)
}

func TestLeaveGroupAsAdmin(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, nil))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/7/leave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	groups.AssertNotCalled(t, "RemoveMember")
}

func TestPostGroupMessageSuccess(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	groupMessages := new(mocks.GroupMessageRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, groupMessages))

	groups.On("IsMember", mock.Anything, 7, 1).Return(true, nil).Once()
	groupMessages.On("CreateGroupMessage", mock.Anything, 7, 1, "yo", "", (*int)(nil)).
		Return(models.GroupMessage{ID: 5, GroupID: 7, SenderID: 1, Text: "yo"}, nil).Once()
	groups.On("SetLastMessage", mock.Anything, 7, 5).Return(nil).Once()

	body := bytes.NewBufferString(`{"text":"yo"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/7/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	groups.AssertExpectations(t)
	groupMessages.AssertExpectations(t)
}

func TestPostGroupMessageNonMember(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	groupMessages := new(mocks.GroupMessageRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, groupMessages))

	groups.On("IsMember", mock.Anything, 7, 1).Return(false, nil).Once()

	body := bytes.NewBufferString(`{"text":"yo"}`)
	req := httptest.NewRequest(http.MethodPost, "/groups/7/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groupMessages.AssertNotCalled(t, "CreateGroupMessage")
}

func TestDeleteGroupMessageByAdmin(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	groupMessages := new(mocks.GroupMessageRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, groupMessages))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 1}, nil).Once()
	groupMessages.On("GetGroupMessage", mock.Anything, 5).
		Return(models.GroupMessage{ID: 5, GroupID: 7, SenderID: 2, Text: "spam"}, nil).Once()
	groupMessages.On("DeleteGroupMessage", mock.Anything, 5).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/7/messages/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groupMessages.AssertExpectations(t)
}

func TestDeleteGroupMessageByStranger(t *testing.T) {
	groups := new(mocks.GroupRepositoryMock)
	groupMessages := new(mocks.GroupMessageRepositoryMock)
	router := setupGroupRouter(newGroupHandler(new(mocks.UserRepositoryMock), groups, groupMessages))

	groups.On("GetGroup", mock.Anything, 7).
		Return(models.Group{ID: 7, AdminID: 2}, nil).Once()
	groupMessages.On("GetGroupMessage", mock.Anything, 5).
		Return(models.GroupMessage{ID: 5, GroupID: 7, SenderID: 3}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/groups/7/messages/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groupMessages.AssertNotCalled(t, "DeleteGroupMessage")
}
