package ebay

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const tradingNamespace = "urn:ebay:apis:eBLBaseComponents"

// Trading 调用名
const (
	CallUploadSiteHostedPictures = "UploadSiteHostedPictures"
	CallAddFixedPriceItem        = "AddFixedPriceItem"
	CallGetMyeBaySelling         = "GetMyeBaySelling"
)

// Ack 取值
const (
	AckSuccess        = "Success"
	AckWarning        = "Warning"
	AckFailure        = "Failure"
	AckPartialFailure = "PartialFailure"
)

// ==================== 请求公共部分 ====================

// RequesterCredentials 旧版 token 鉴权
type RequesterCredentials struct {
	EBayAuthToken string `xml:"eBayAuthToken,omitempty"`
}

// RequestBase 所有 Trading 请求共有字段
type RequestBase struct {
	RequesterCredentials *RequesterCredentials `xml:"RequesterCredentials,omitempty"`
	ErrorLanguage        string                `xml:"ErrorLanguage,omitempty"`
	WarningLevel         string                `xml:"WarningLevel,omitempty"`
	MessageID            string                `xml:"MessageID,omitempty"`
}

func (b *RequestBase) base() *RequestBase { return b }

// Request Trading 请求体
type Request interface {
	base() *RequestBase
}

// ==================== 响应公共部分 ====================

// ErrorDetail 平台返回的错误/警告
type ErrorDetail struct {
	ShortMessage        string `xml:"ShortMessage" json:"short_message"`
	LongMessage         string `xml:"LongMessage" json:"long_message"`
	ErrorCode           string `xml:"ErrorCode" json:"code"`
	SeverityCode        string `xml:"SeverityCode" json:"severity"`
	ErrorClassification string `xml:"ErrorClassification" json:"classification,omitempty"`
}

// ResponseBase 所有 Trading 响应共有字段
type ResponseBase struct {
	Timestamp     string        `xml:"Timestamp"`
	Ack           string        `xml:"Ack"`
	CorrelationID string        `xml:"CorrelationID"`
	Errors        []ErrorDetail `xml:"Errors"`
	Version       string        `xml:"Version"`
	Build         string        `xml:"Build"`
}

// Succeeded Success 和 Warning 都算成功
func (r *ResponseBase) Succeeded() bool {
	return r.Ack == AckSuccess || r.Ack == AckWarning
}

// Warnings 严重级别为 Warning 的消息
func (r *ResponseBase) Warnings() []ErrorDetail {
	var out []ErrorDetail
	for _, e := range r.Errors {
		if strings.EqualFold(e.SeverityCode, "Warning") {
			out = append(out, e)
		}
	}
	return out
}

// ==================== 金额 ====================

// Amount 带币种的金额
type Amount struct {
	Value      string `xml:",chardata"`
	CurrencyID string `xml:"currencyID,attr,omitempty"`
}

// NewAmount 两位小数格式化
func NewAmount(v float64, currency string) Amount {
	return Amount{Value: strconv.FormatFloat(v, 'f', 2, 64), CurrencyID: currency}
}

// Float 解析金额，失败返回 0
func (a Amount) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
	if err != nil {
		return 0
	}
	return f
}

// CData 以 CDATA 输出的文本
type CData struct {
	Text string `xml:",cdata"`
}

// ==================== UploadSiteHostedPictures ====================

// UploadPictureRequest 图片上传 XML 部分
type UploadPictureRequest struct {
	XMLName xml.Name `xml:"urn:ebay:apis:eBLBaseComponents UploadSiteHostedPicturesRequest"`
	RequestBase
	PictureName string `xml:"PictureName,omitempty"`
	PictureSet  string `xml:"PictureSet,omitempty"`
}

// ==================== AddFixedPriceItem ====================

// AddFixedPriceItemRequest 一口价刊登
type AddFixedPriceItemRequest struct {
	XMLName xml.Name `xml:"urn:ebay:apis:eBLBaseComponents AddFixedPriceItemRequest"`
	RequestBase
	Item Item `xml:"Item"`
}

// Item 刊登内容
type Item struct {
	SKU              string            `xml:"SKU,omitempty"`
	Title            string            `xml:"Title"`
	Description      CData             `xml:"Description"`
	PrimaryCategory  CategoryRef       `xml:"PrimaryCategory"`
	StartPrice       Amount            `xml:"StartPrice"`
	ConditionID      int               `xml:"ConditionID,omitempty"`
	Country          string            `xml:"Country"`
	Currency         string            `xml:"Currency"`
	Location         string            `xml:"Location,omitempty"`
	PostalCode       string            `xml:"PostalCode,omitempty"`
	DispatchTimeMax  int               `xml:"DispatchTimeMax,omitempty"`
	ListingDuration  string            `xml:"ListingDuration"`
	ListingType      string            `xml:"ListingType"`
	Quantity         int               `xml:"Quantity"`
	ScheduleTime     string            `xml:"ScheduleTime,omitempty"`
	BestOfferDetails *BestOfferDetails `xml:"BestOfferDetails,omitempty"`
	PictureDetails   *PictureDetails   `xml:"PictureDetails,omitempty"`
	ItemSpecifics    *ItemSpecifics    `xml:"ItemSpecifics,omitempty"`
	SellerProfiles   *SellerProfiles   `xml:"SellerProfiles,omitempty"`
	Regulatory       *Regulatory       `xml:"Regulatory,omitempty"`
}

// CategoryRef 分类引用
type CategoryRef struct {
	CategoryID   string `xml:"CategoryID"`
	CategoryName string `xml:"CategoryName,omitempty"`
}

// BestOfferDetails 议价
type BestOfferDetails struct {
	BestOfferEnabled bool `xml:"BestOfferEnabled"`
}

// PictureDetails 图片地址，顺序即展示顺序
type PictureDetails struct {
	GalleryURL string   `xml:"GalleryURL,omitempty"`
	PictureURL []string `xml:"PictureURL"`
}

// ItemSpecifics 商品属性
type ItemSpecifics struct {
	NameValueList []NameValueList `xml:"NameValueList"`
}

// NameValueList 属性键值
type NameValueList struct {
	Name  string   `xml:"Name"`
	Value []string `xml:"Value"`
}

// SellerProfiles 业务政策（按名称引用）
type SellerProfiles struct {
	SellerShippingProfile *ShippingProfile `xml:"SellerShippingProfile,omitempty"`
	SellerReturnProfile   *ReturnProfile   `xml:"SellerReturnProfile,omitempty"`
	SellerPaymentProfile  *PaymentProfile  `xml:"SellerPaymentProfile,omitempty"`
}

type ShippingProfile struct {
	ShippingProfileName string `xml:"ShippingProfileName"`
}

type ReturnProfile struct {
	ReturnProfileName string `xml:"ReturnProfileName"`
}

type PaymentProfile struct {
	PaymentProfileName string `xml:"PaymentProfileName"`
}

// Regulatory 合规信息（GPSR 制造商）
type Regulatory struct {
	Manufacturer *Manufacturer `xml:"Manufacturer,omitempty"`
}

// Manufacturer 制造商地址
type Manufacturer struct {
	CompanyName string `xml:"CompanyName,omitempty"`
	Street1     string `xml:"Street1"`
	CityName    string `xml:"CityName"`
	PostalCode  string `xml:"PostalCode"`
	Country     string `xml:"Country"`
	Phone       string `xml:"Phone,omitempty"`
	Email       string `xml:"Email,omitempty"`
	ContactURL  string `xml:"ContactURL,omitempty"`
}

// AddItemResult 刊登结果
type AddItemResult struct {
	ItemID   string
	Ack      string
	Warnings []ErrorDetail
}

// ==================== GetMyeBaySelling ====================

// GetMyeBaySellingRequest 在售列表
type GetMyeBaySellingRequest struct {
	XMLName xml.Name `xml:"urn:ebay:apis:eBLBaseComponents GetMyeBaySellingRequest"`
	RequestBase
	ActiveList  *ItemListCustomization `xml:"ActiveList,omitempty"`
	DetailLevel string                 `xml:"DetailLevel,omitempty"`
}

// ItemListCustomization 列表参数
type ItemListCustomization struct {
	Include    bool       `xml:"Include"`
	Sort       string     `xml:"Sort,omitempty"`
	Pagination Pagination `xml:"Pagination"`
}

// Pagination 分页
type Pagination struct {
	EntriesPerPage int `xml:"EntriesPerPage"`
	PageNumber     int `xml:"PageNumber"`
}

// GetMyeBaySellingResponse 在售列表响应
type GetMyeBaySellingResponse struct {
	ResponseBase
	ActiveList struct {
		ItemArray struct {
			Items []ActiveItem `xml:"Item"`
		} `xml:"ItemArray"`
		PaginationResult PaginationResult `xml:"PaginationResult"`
	} `xml:"ActiveList"`
}

// PaginationResult 分页结果
type PaginationResult struct {
	TotalNumberOfPages   int `xml:"TotalNumberOfPages"`
	TotalNumberOfEntries int `xml:"TotalNumberOfEntries"`
}

// ActiveItem 在售商品
type ActiveItem struct {
	ItemID            string `xml:"ItemID"`
	SKU               string `xml:"SKU"`
	Title             string `xml:"Title"`
	Quantity          int    `xml:"Quantity"`
	QuantityAvailable int    `xml:"QuantityAvailable"`
	Site              string `xml:"Site"`
	BuyItNowPrice     Amount `xml:"BuyItNowPrice"`
	ConditionName     string `xml:"ConditionDisplayName"`
	PrimaryCategory   struct {
		CategoryID   string `xml:"CategoryID"`
		CategoryName string `xml:"CategoryName"`
	} `xml:"PrimaryCategory"`
	SellingStatus struct {
		CurrentPrice Amount `xml:"CurrentPrice"`
		QuantitySold int    `xml:"QuantitySold"`
	} `xml:"SellingStatus"`
	ListingDetails struct {
		ViewItemURL string `xml:"ViewItemURL"`
		StartTime   string `xml:"StartTime"`
	} `xml:"ListingDetails"`
	PictureDetails struct {
		GalleryURL string   `xml:"GalleryURL"`
		PictureURL []string `xml:"PictureURL"`
	} `xml:"PictureDetails"`
}

// ActivePage 单页结果
type ActivePage struct {
	Items        []ActiveItem
	PageNumber   int
	TotalPages   int
	TotalEntries int
}

// PageProgress 分页进度
type PageProgress struct {
	Page       int
	TotalPages int
	Count      int
}
