package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	SessionServiceName = "tabsplit.v1.SessionService"
	ReceiptServiceName = "tabsplit.v1.ReceiptService"
	AuthServiceName    = "tabsplit.v1.AuthService"
)

// Fully-qualified procedure names, which double as HTTP routes.
const (
	SessionServiceCreateSessionProcedure     = "/" + SessionServiceName + "/CreateSession"
	SessionServiceGetSessionProcedure        = "/" + SessionServiceName + "/GetSession"
	SessionServiceListSessionsProcedure      = "/" + SessionServiceName + "/ListSessions"
	SessionServiceDeleteSessionProcedure     = "/" + SessionServiceName + "/DeleteSession"
	SessionServiceConfigureSessionProcedure  = "/" + SessionServiceName + "/ConfigureSession"
	SessionServiceAddItemProcedure           = "/" + SessionServiceName + "/AddItem"
	SessionServiceEditItemProcedure          = "/" + SessionServiceName + "/EditItem"
	SessionServiceRemoveItemProcedure        = "/" + SessionServiceName + "/RemoveItem"
	SessionServiceAddParticipantProcedure    = "/" + SessionServiceName + "/AddParticipant"
	SessionServiceRemoveParticipantProcedure = "/" + SessionServiceName + "/RemoveParticipant"
	SessionServiceAssignItemProcedure        = "/" + SessionServiceName + "/AssignItem"
	SessionServiceFinalizeSessionProcedure   = "/" + SessionServiceName + "/FinalizeSession"
	SessionServiceReopenSessionProcedure     = "/" + SessionServiceName + "/ReopenSession"
	SessionServiceGetSettlementProcedure     = "/" + SessionServiceName + "/GetSettlement"

	ReceiptServiceScanReceiptProcedure = "/" + ReceiptServiceName + "/ScanReceipt"

	AuthServiceRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthServiceGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
)

// SessionServiceHandler is implemented by the session RPC server.
type SessionServiceHandler interface {
	CreateSession(context.Context, *connect.Request[CreateSessionRequest]) (*connect.Response[SessionResponse], error)
	GetSession(context.Context, *connect.Request[GetSessionRequest]) (*connect.Response[SessionResponse], error)
	ListSessions(context.Context, *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error)
	DeleteSession(context.Context, *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error)
	ConfigureSession(context.Context, *connect.Request[ConfigureSessionRequest]) (*connect.Response[SessionResponse], error)
	AddItem(context.Context, *connect.Request[AddItemRequest]) (*connect.Response[AddItemResponse], error)
	EditItem(context.Context, *connect.Request[EditItemRequest]) (*connect.Response[SessionResponse], error)
	RemoveItem(context.Context, *connect.Request[RemoveItemRequest]) (*connect.Response[SessionResponse], error)
	AddParticipant(context.Context, *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error)
	RemoveParticipant(context.Context, *connect.Request[RemoveParticipantRequest]) (*connect.Response[SessionResponse], error)
	AssignItem(context.Context, *connect.Request[AssignItemRequest]) (*connect.Response[SessionResponse], error)
	FinalizeSession(context.Context, *connect.Request[FinalizeSessionRequest]) (*connect.Response[SessionResponse], error)
	ReopenSession(context.Context, *connect.Request[ReopenSessionRequest]) (*connect.Response[SessionResponse], error)
	GetSettlement(context.Context, *connect.Request[GetSettlementRequest]) (*connect.Response[GetSettlementResponse], error)
}

// ReceiptServiceHandler is implemented by the receipt scanning server.
type ReceiptServiceHandler interface {
	ScanReceipt(context.Context, *connect.Request[ScanReceiptRequest]) (*connect.Response[ScanReceiptResponse], error)
}

// AuthServiceHandler is implemented by the account server.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error)
	GetCurrentUser(context.Context, *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error)
}

func handle[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// NewSessionServiceHandler builds an HTTP handler for svc and returns the
// path prefix to mount it on.
func NewSessionServiceHandler(svc SessionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	handle(mux, SessionServiceCreateSessionProcedure, svc.CreateSession, opts)
	handle(mux, SessionServiceGetSessionProcedure, svc.GetSession, opts)
	handle(mux, SessionServiceListSessionsProcedure, svc.ListSessions, opts)
	handle(mux, SessionServiceDeleteSessionProcedure, svc.DeleteSession, opts)
	handle(mux, SessionServiceConfigureSessionProcedure, svc.ConfigureSession, opts)
	handle(mux, SessionServiceAddItemProcedure, svc.AddItem, opts)
	handle(mux, SessionServiceEditItemProcedure, svc.EditItem, opts)
	handle(mux, SessionServiceRemoveItemProcedure, svc.RemoveItem, opts)
	handle(mux, SessionServiceAddParticipantProcedure, svc.AddParticipant, opts)
	handle(mux, SessionServiceRemoveParticipantProcedure, svc.RemoveParticipant, opts)
	handle(mux, SessionServiceAssignItemProcedure, svc.AssignItem, opts)
	handle(mux, SessionServiceFinalizeSessionProcedure, svc.FinalizeSession, opts)
	handle(mux, SessionServiceReopenSessionProcedure, svc.ReopenSession, opts)
	handle(mux, SessionServiceGetSettlementProcedure, svc.GetSettlement, opts)
	return "/" + SessionServiceName + "/", mux
}

// NewReceiptServiceHandler builds an HTTP handler for svc.
func NewReceiptServiceHandler(svc ReceiptServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	handle(mux, ReceiptServiceScanReceiptProcedure, svc.ScanReceipt, opts)
	return "/" + ReceiptServiceName + "/", mux
}

// NewAuthServiceHandler builds an HTTP handler for svc.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	handle(mux, AuthServiceRegisterProcedure, svc.Register, opts)
	handle(mux, AuthServiceLoginProcedure, svc.Login, opts)
	handle(mux, AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts)
	return "/" + AuthServiceName + "/", mux
}

func client[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](httpClient, baseURL+procedure, opts...)
}

func clientOptions(baseURL string, opts []connect.ClientOption) (string, []connect.ClientOption) {
	return strings.TrimRight(baseURL, "/"), append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// SessionServiceClient calls a remote SessionService.
type SessionServiceClient struct {
	createSession     *connect.Client[CreateSessionRequest, SessionResponse]
	getSession        *connect.Client[GetSessionRequest, SessionResponse]
	listSessions      *connect.Client[ListSessionsRequest, ListSessionsResponse]
	deleteSession     *connect.Client[DeleteSessionRequest, DeleteSessionResponse]
	configureSession  *connect.Client[ConfigureSessionRequest, SessionResponse]
	addItem           *connect.Client[AddItemRequest, AddItemResponse]
	editItem          *connect.Client[EditItemRequest, SessionResponse]
	removeItem        *connect.Client[RemoveItemRequest, SessionResponse]
	addParticipant    *connect.Client[AddParticipantRequest, AddParticipantResponse]
	removeParticipant *connect.Client[RemoveParticipantRequest, SessionResponse]
	assignItem        *connect.Client[AssignItemRequest, SessionResponse]
	finalizeSession   *connect.Client[FinalizeSessionRequest, SessionResponse]
	reopenSession     *connect.Client[ReopenSessionRequest, SessionResponse]
	getSettlement     *connect.Client[GetSettlementRequest, GetSettlementResponse]
}

// NewSessionServiceClient builds a client for the SessionService at baseURL.
func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SessionServiceClient {
	baseURL, opts = clientOptions(baseURL, opts)
	return &SessionServiceClient{
		createSession:     client[CreateSessionRequest, SessionResponse](httpClient, baseURL, SessionServiceCreateSessionProcedure, opts),
		getSession:        client[GetSessionRequest, SessionResponse](httpClient, baseURL, SessionServiceGetSessionProcedure, opts),
		listSessions:      client[ListSessionsRequest, ListSessionsResponse](httpClient, baseURL, SessionServiceListSessionsProcedure, opts),
		deleteSession:     client[DeleteSessionRequest, DeleteSessionResponse](httpClient, baseURL, SessionServiceDeleteSessionProcedure, opts),
		configureSession:  client[ConfigureSessionRequest, SessionResponse](httpClient, baseURL, SessionServiceConfigureSessionProcedure, opts),
		addItem:           client[AddItemRequest, AddItemResponse](httpClient, baseURL, SessionServiceAddItemProcedure, opts),
		editItem:          client[EditItemRequest, SessionResponse](httpClient, baseURL, SessionServiceEditItemProcedure, opts),
		removeItem:        client[RemoveItemRequest, SessionResponse](httpClient, baseURL, SessionServiceRemoveItemProcedure, opts),
		addParticipant:    client[AddParticipantRequest, AddParticipantResponse](httpClient, baseURL, SessionServiceAddParticipantProcedure, opts),
		removeParticipant: client[RemoveParticipantRequest, SessionResponse](httpClient, baseURL, SessionServiceRemoveParticipantProcedure, opts),
		assignItem:        client[AssignItemRequest, SessionResponse](httpClient, baseURL, SessionServiceAssignItemProcedure, opts),
		finalizeSession:   client[FinalizeSessionRequest, SessionResponse](httpClient, baseURL, SessionServiceFinalizeSessionProcedure, opts),
		reopenSession:     client[ReopenSessionRequest, SessionResponse](httpClient, baseURL, SessionServiceReopenSessionProcedure, opts),
		getSettlement:     client[GetSettlementRequest, GetSettlementResponse](httpClient, baseURL, SessionServiceGetSettlementProcedure, opts),
	}
}

func (c *SessionServiceClient) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.getSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) ListSessions(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	return c.listSessions.CallUnary(ctx, req)
}

func (c *SessionServiceClient) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	return c.deleteSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) ConfigureSession(ctx context.Context, req *connect.Request[ConfigureSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.configureSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[AddItemResponse], error) {
	return c.addItem.CallUnary(ctx, req)
}

func (c *SessionServiceClient) EditItem(ctx context.Context, req *connect.Request[EditItemRequest]) (*connect.Response[SessionResponse], error) {
	return c.editItem.CallUnary(ctx, req)
}

func (c *SessionServiceClient) RemoveItem(ctx context.Context, req *connect.Request[RemoveItemRequest]) (*connect.Response[SessionResponse], error) {
	return c.removeItem.CallUnary(ctx, req)
}

func (c *SessionServiceClient) AddParticipant(ctx context.Context, req *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error) {
	return c.addParticipant.CallUnary(ctx, req)
}

func (c *SessionServiceClient) RemoveParticipant(ctx context.Context, req *connect.Request[RemoveParticipantRequest]) (*connect.Response[SessionResponse], error) {
	return c.removeParticipant.CallUnary(ctx, req)
}

func (c *SessionServiceClient) AssignItem(ctx context.Context, req *connect.Request[AssignItemRequest]) (*connect.Response[SessionResponse], error) {
	return c.assignItem.CallUnary(ctx, req)
}

func (c *SessionServiceClient) FinalizeSession(ctx context.Context, req *connect.Request[FinalizeSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.finalizeSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) ReopenSession(ctx context.Context, req *connect.Request[ReopenSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.reopenSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) GetSettlement(ctx context.Context, req *connect.Request[GetSettlementRequest]) (*connect.Response[GetSettlementResponse], error) {
	return c.getSettlement.CallUnary(ctx, req)
}

// ReceiptServiceClient calls a remote ReceiptService.
type ReceiptServiceClient struct {
	scanReceipt *connect.Client[ScanReceiptRequest, ScanReceiptResponse]
}

// NewReceiptServiceClient builds a client for the ReceiptService at baseURL.
func NewReceiptServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ReceiptServiceClient {
	baseURL, opts = clientOptions(baseURL, opts)
	return &ReceiptServiceClient{
		scanReceipt: client[ScanReceiptRequest, ScanReceiptResponse](httpClient, baseURL, ReceiptServiceScanReceiptProcedure, opts),
	}
}

func (c *ReceiptServiceClient) ScanReceipt(ctx context.Context, req *connect.Request[ScanReceiptRequest]) (*connect.Response[ScanReceiptResponse], error) {
	return c.scanReceipt.CallUnary(ctx, req)
}

// AuthServiceClient calls a remote AuthService.
type AuthServiceClient struct {
	register       *connect.Client[RegisterRequest, AuthResponse]
	login          *connect.Client[LoginRequest, AuthResponse]
	getCurrentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
}

// NewAuthServiceClient builds a client for the AuthService at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL, opts = clientOptions(baseURL, opts)
	return &AuthServiceClient{
		register:       client[RegisterRequest, AuthResponse](httpClient, baseURL, AuthServiceRegisterProcedure, opts),
		login:          client[LoginRequest, AuthResponse](httpClient, baseURL, AuthServiceLoginProcedure, opts),
		getCurrentUser: client[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL, AuthServiceGetCurrentUserProcedure, opts),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}
