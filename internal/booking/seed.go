package booking

import "github.com/ovaphlow/pitchfork/service-puja/internal/booking/entity"

// DefaultProviders is the provider directory loaded into an empty database.
func DefaultProviders() []entity.Provider {
	return []entity.Provider{
		{Name: "Pandit Ramesh Sharma", Kind: "pandit", City: "Varanasi", Languages: []string{"hindi", "sanskrit"},
			Services: []string{"Rudrabhishek", "Satyanarayan Katha", "Griha Pravesh"}, Rating: 4.8},
		{Name: "Acharya Vinod Joshi", Kind: "pandit", City: "Pune", Languages: []string{"marathi", "hindi"},
			Services: []string{"Ganesh Puja", "Namkaran", "Vivah"}, Rating: 4.6},
		{Name: "Pandit Suresh Mishra", Kind: "pandit", City: "Delhi", Languages: []string{"hindi", "english"},
			Services: []string{"Lakshmi Puja", "Navgraha Shanti", "Kaal Sarp Dosh Puja"}, Rating: 4.5},
		{Name: "Shri Kashi Vishwanath Mandir", Kind: "temple", City: "Varanasi", Languages: []string{"hindi"},
			Services: []string{"Rudrabhishek", "Mahamrityunjaya Jaap"}, Rating: 4.9},
		{Name: "Shri Siddhivinayak Mandir", Kind: "temple", City: "Mumbai", Languages: []string{"marathi", "hindi"},
			Services: []string{"Ganesh Puja", "Sankashti Chaturthi Puja"}, Rating: 4.7},
	}
}
