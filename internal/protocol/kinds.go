// Package protocol defines the wire envelope exchanged over one WebSocket
// text connection: Requests flow toward the server, Results flow toward the
// client. Payloads are encoded as a closed tagged union; a payload tag
// outside the enumerated set is a decode error, never a type lookup.
package protocol

// RequestKind names the operation a Request asks the server to perform.
type RequestKind string

const (
	RequestConnect            RequestKind = "connect"
	RequestDisconnect         RequestKind = "disconnect"
	RequestConnectToChat      RequestKind = "connectToChat"
	RequestAddUserToChat      RequestKind = "addUserToChat"
	RequestCreateChat         RequestKind = "createChat"
	RequestDeleteChat         RequestKind = "deleteChat"
	RequestDisconnectFromChat RequestKind = "disconnectFromChat"
	RequestSendMessage        RequestKind = "sendMessage"
	RequestSendCommand        RequestKind = "sendCommand"
	RequestAuthorization      RequestKind = "authorization"
	RequestRegistration       RequestKind = "registration"
	RequestError              RequestKind = "error"
)

// ResultKind names the outcome a Result reports back to a client.
type ResultKind string

const (
	ResultConnect            ResultKind = "connect"
	ResultDisconnect         ResultKind = "disconnect"
	ResultConnectToChat      ResultKind = "connectToChat"
	ResultAddUserToChat      ResultKind = "addUserToChat"
	ResultCreateChat         ResultKind = "createChat"
	ResultDeleteChat         ResultKind = "deleteChat"
	ResultDisconnectFromChat ResultKind = "disconnectFromChat"
	ResultSendMessage        ResultKind = "sendMessage"
	ResultSendChats          ResultKind = "sendChats"
	ResultNeedAuthentication ResultKind = "needAuthentication"
	ResultSuccessAuthorized  ResultKind = "successAuthorized"
	ResultSuccessRegistered  ResultKind = "successRegistered"
	ResultNoPermission       ResultKind = "noPermission"
	ResultError              ResultKind = "error"
)
