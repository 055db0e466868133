package lambda

import "github.com/aws/aws-lambda-go/events"

// FromAPIGateway converts an API Gateway proxy event to a generic request.
func FromAPIGateway(event events.APIGatewayProxyRequest) *Request {
	return &Request{
		Method:      event.HTTPMethod,
		Path:        event.Path,
		Headers:     event.Headers,
		QueryParams: event.QueryStringParameters,
		PathParams:  event.PathParameters,
		Body:        []byte(event.Body),
	}
}

// ToAPIGateway converts a generic response to an API Gateway proxy response.
func ToAPIGateway(resp *Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}
}
