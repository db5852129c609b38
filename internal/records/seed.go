package records

var seedDoctors = []Doctor{
	{Name: "Dr. Ahmet Yılmaz", Specialty: "Çene Cerrahisi", Image: "https://images.unsplash.com/photo-1622253692010-333f2da6031d?auto=format&fit=crop&q=80&w=300", AvailableDays: []int{1, 2, 3, 4, 5}, AverageRating: 4.8},
	{Name: "Dr. Ayşe Demir", Specialty: "Ortodonti", Image: "https://images.unsplash.com/photo-1594824476967-48c8b964273f?auto=format&fit=crop&q=80&w=300", AvailableDays: []int{1, 3, 5}, AverageRating: 4.9},
	{Name: "Dr. Mehmet Öz", Specialty: "Pedodonti (Çocuk)", Image: "https://images.unsplash.com/photo-1537368910025-700350fe46c7?auto=format&fit=crop&q=80&w=300", AvailableDays: []int{2, 4, 6}, AverageRating: 4.7},
	{Name: "Dr. Elif Kaya", Specialty: "Estetik Diş Hekimliği", Image: "https://images.unsplash.com/photo-1651008376811-b90baee60c1f?auto=format&fit=crop&q=80&w=300", AvailableDays: []int{1, 2, 4, 5}, AverageRating: 5.0},
}

var seedServices = []Service{
	{Name: "Diş Beyazlatma", PriceRange: "2000 - 3500 TL", Duration: "45 dk", Description: "Lazerle profesyonel diş beyazlatma işlemi."},
	{Name: "İmplant Tedavisi", PriceRange: "15000 - 25000 TL", Duration: "60 dk", Description: "Titanyum vida ile eksik diş telafisi."},
	{Name: "Kanal Tedavisi", PriceRange: "3000 - 5000 TL", Duration: "90 dk", Description: "Enfekte sinirlerin temizlenmesi ve doldurulması."},
	{Name: "Diş Taşı Temizliği", PriceRange: "1000 - 1500 TL", Duration: "30 dk", Description: "Ultrasonik cihazlarla plak ve taş temizliği."},
	{Name: "Zirkonyum Kaplama", PriceRange: "4000 - 6000 TL", Duration: "120 dk", Description: "Estetik ve dayanıklı porselen kaplama."},
}
